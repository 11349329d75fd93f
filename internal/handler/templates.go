package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/pkg/response"
)

type TemplateHandler struct {
	service   *service.TemplateService
	validator *validator.Validate
}

func NewTemplateHandler(svc *service.TemplateService, v *validator.Validate) *TemplateHandler {
	return &TemplateHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/templates
func (h *TemplateHandler) Create(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req model.CreateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if _, err := model.ParseTimeline(req.Timeline); err != nil {
		return response.ValidationError(c, "Invalid timeline definition", nil)
	}

	tmpl, err := h.service.CreateTemplate(c.Context(), userID, &req)
	if err != nil {
		return response.ServiceError(c, "Failed to create template")
	}

	return response.Created(c, tmpl)
}

// List handles GET /api/templates
func (h *TemplateHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	templates, err := h.service.ListTemplates(c.Context(), userID, c.Query("platform"))
	if err != nil {
		return response.ServiceError(c, "Failed to list templates")
	}

	return response.OK(c, templates)
}

// Get handles GET /api/templates/:id
func (h *TemplateHandler) Get(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	templateID := c.Params("id")

	tmpl, err := h.service.GetTemplate(c.Context(), templateID, userID)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return response.NotFound(c, "Template not found")
		}
		return response.ServiceError(c, "Failed to load template")
	}

	return response.OK(c, tmpl)
}

// Update handles PUT /api/templates/:id
func (h *TemplateHandler) Update(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	templateID := c.Params("id")

	var req model.UpdateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if req.Timeline != "" {
		if _, err := model.ParseTimeline(req.Timeline); err != nil {
			return response.ValidationError(c, "Invalid timeline definition", nil)
		}
	}

	tmpl, err := h.service.UpdateTemplate(c.Context(), templateID, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return response.NotFound(c, "Template not found")
		}
		return response.ServiceError(c, "Failed to update template")
	}

	return response.OK(c, tmpl)
}

// Delete handles DELETE /api/templates/:id
func (h *TemplateHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	templateID := c.Params("id")

	if err := h.service.DeleteTemplate(c.Context(), templateID, userID); err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return response.NotFound(c, "Template not found")
		}
		return response.ServiceError(c, "Failed to delete template")
	}

	return response.NoContent(c)
}
