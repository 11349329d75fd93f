package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/pkg/response"
)

type AssetHandler struct {
	service   *service.AssetService
	validator *validator.Validate
}

func NewAssetHandler(svc *service.AssetService, v *validator.Validate) *AssetHandler {
	return &AssetHandler{
		service:   svc,
		validator: v,
	}
}

// Upload handles POST /api/assets
func (h *AssetHandler) Upload(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	var tags []string
	if raw := c.FormValue("tags"); raw != "" {
		tags = splitTags(raw)
	}

	src, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	asset, err := h.service.UploadAsset(c.Context(), userID, file.Filename, src, file.Size, tags)
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedFileType) {
			return response.ValidationError(c, "Unsupported file type", nil)
		}
		if errors.Is(err, service.ErrFileTooLarge) {
			return response.ValidationError(c, "File exceeds the upload size limit", nil)
		}
		return response.ServiceError(c, "Failed to store asset")
	}

	return response.Created(c, asset)
}

// List handles GET /api/assets
func (h *AssetHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	filter := &model.AssetFilter{
		Type:   c.Query("type"),
		Search: c.Query("search"),
		Tag:    c.Query("tag"),
	}

	assets, err := h.service.ListAssets(c.Context(), userID, filter)
	if err != nil {
		return response.ServiceError(c, "Failed to list assets")
	}

	return response.OK(c, assets)
}

// Get handles GET /api/assets/:id
func (h *AssetHandler) Get(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	assetID := c.Params("id")

	asset, err := h.service.GetAsset(c.Context(), assetID, userID)
	if err != nil {
		if errors.Is(err, service.ErrAssetNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.ServiceError(c, "Failed to load asset")
	}

	return response.OK(c, asset)
}

// UpdateTags handles PUT /api/assets/:id/tags
func (h *AssetHandler) UpdateTags(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	assetID := c.Params("id")

	var req model.UpdateTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	asset, err := h.service.UpdateTags(c.Context(), assetID, userID, req.Tags)
	if err != nil {
		if errors.Is(err, service.ErrAssetNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.ServiceError(c, "Failed to update tags")
	}

	return response.OK(c, asset)
}

// Delete handles DELETE /api/assets/:id
func (h *AssetHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	assetID := c.Params("id")

	if err := h.service.DeleteAsset(c.Context(), assetID, userID); err != nil {
		if errors.Is(err, service.ErrAssetNotFound) {
			return response.NotFound(c, "Asset not found")
		}
		return response.ServiceError(c, "Failed to delete asset")
	}

	return response.NoContent(c)
}

func splitTags(raw string) []string {
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
