package handler

import (
	"errors"
	"log"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/client"
	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/pipeline"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/pkg/response"
)

type JobHandler struct {
	service *service.JobService
	storage client.StorageClient // nil when outputs are served from disk
}

func NewJobHandler(svc *service.JobService, storage client.StorageClient) *JobHandler {
	return &JobHandler{
		service: svc,
		storage: storage,
	}
}

// List handles GET /api/jobs
func (h *JobHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	jobs, err := h.service.ListJobs(c.Context(), userID)
	if err != nil {
		return response.ServiceError(c, "Failed to list jobs")
	}

	return response.OK(c, jobs)
}

// Get handles GET /api/jobs/:id
func (h *JobHandler) Get(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	jobID := c.Params("id")

	job, err := h.service.GetOwnedJob(c.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, pipeline.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, "Failed to load job")
	}

	return response.OK(c, job.ToResponse())
}

// Download handles GET /api/jobs/:id/download. Completed jobs stream the
// rendered file from disk, or redirect to a presigned URL when object
// storage is configured.
func (h *JobHandler) Download(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	jobID := c.Params("id")

	job, err := h.service.GetOwnedJob(c.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, pipeline.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, "Failed to load job")
	}

	if job.Status != model.JobStatusCompleted || job.OutputPath == "" {
		return response.ValidationError(c, "Job has no downloadable output", nil)
	}

	if h.storage != nil {
		url, err := h.storage.GetSignedURL(c.Context(), filepath.Base(job.OutputPath), 15*time.Minute)
		if err == nil {
			return c.Redirect(url, fiber.StatusTemporaryRedirect)
		}
		// Fall back to local streaming on presign failure
	}

	return c.Download(job.OutputPath, filepath.Base(job.OutputPath))
}

// Delete handles DELETE /api/jobs/:id
func (h *JobHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	jobID := c.Params("id")

	// Remove the published object before the record disappears. Local
	// file removal happens in the service.
	if h.storage != nil {
		if job, err := h.service.GetOwnedJob(c.Context(), jobID, userID); err == nil && job.OutputPath != "" {
			if err := h.storage.Delete(c.Context(), filepath.Base(job.OutputPath)); err != nil {
				log.Printf("Delete published output for job %s: %v", jobID, err)
			}
		}
	}

	if err := h.service.DeleteJob(c.Context(), jobID, userID); err != nil {
		if errors.Is(err, pipeline.ErrJobNotFound) {
			return response.NotFound(c, "Job not found")
		}
		return response.ServiceError(c, "Failed to delete job")
	}

	return response.NoContent(c)
}
