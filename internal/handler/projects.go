package handler

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/clipforge/api/internal/middleware"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/service"
	"github.com/clipforge/api/pkg/response"
)

type ProjectHandler struct {
	projects  *service.ProjectService
	jobs      *service.JobService
	batch     *service.BatchService
	validator *validator.Validate
}

func NewProjectHandler(projects *service.ProjectService, jobs *service.JobService, batch *service.BatchService, v *validator.Validate) *ProjectHandler {
	return &ProjectHandler{
		projects:  projects,
		jobs:      jobs,
		batch:     batch,
		validator: v,
	}
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req model.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if _, err := model.ParseTimeline(req.Timeline); err != nil {
		return response.ValidationError(c, "Invalid timeline definition", nil)
	}

	project, err := h.projects.CreateProject(c.Context(), userID, &req)
	if err != nil {
		return response.ServiceError(c, "Failed to create project")
	}

	return response.Created(c, project)
}

// CreateFromTemplate handles POST /api/projects/from-template
func (h *ProjectHandler) CreateFromTemplate(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req model.CreateFromTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	project, err := h.projects.CreateFromTemplate(c.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return response.NotFound(c, "Template not found")
		}
		return response.ServiceError(c, "Failed to create project")
	}

	return response.Created(c, project)
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	projects, err := h.projects.ListProjects(c.Context(), userID)
	if err != nil {
		return response.ServiceError(c, "Failed to list projects")
	}

	return response.OK(c, projects)
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID := c.Params("id")

	project, err := h.projects.GetOwnedProject(c.Context(), projectID, userID)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, "Failed to load project")
	}

	jobs, err := h.jobs.ListJobsForProject(c.Context(), projectID, userID)
	if err != nil {
		return response.ServiceError(c, "Failed to load project jobs")
	}

	return response.OK(c, &model.ProjectResponse{
		ID:         project.ID,
		Name:       project.Name,
		Timeline:   project.Timeline,
		Status:     project.Status,
		CreatedAt:  project.CreatedAt,
		ModifiedAt: project.ModifiedAt,
		Jobs:       jobs,
	})
}

// Update handles PUT /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID := c.Params("id")

	var req model.UpdateProjectRequest
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

	project, err := h.projects.UpdateProject(c.Context(), projectID, userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, "Failed to update project")
	}

	return response.OK(c, project)
}

// Delete handles DELETE /api/projects/:id. The project's jobs and their
// rendered outputs go with it.
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID := c.Params("id")

	if err := h.projects.DeleteProject(c.Context(), projectID, userID); err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, "Failed to delete project")
	}

	jobs, err := h.jobs.ListJobsForProject(c.Context(), projectID, userID)
	if err == nil {
		for _, job := range jobs {
			if err := h.jobs.DeleteJob(c.Context(), job.ID, userID); err != nil {
				log.Printf("Cascade delete job %s: %v", job.ID, err)
			}
		}
	}

	return response.NoContent(c)
}

// Process handles POST /api/projects/:id/process. It queues one render job
// for the requested platform; unknown platform names fall back to the
// default profile at render time.
func (h *ProjectHandler) Process(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	projectID := c.Params("id")

	platform := c.Query("platform")
	if platform == "" {
		var body struct {
			Platform string `json:"platform"`
		}
		if err := c.BodyParser(&body); err == nil {
			platform = body.Platform
		}
	}

	project, err := h.projects.GetOwnedProject(c.Context(), projectID, userID)
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return response.NotFound(c, "Project not found")
		}
		return response.ServiceError(c, "Failed to load project")
	}

	timeline, err := model.ParseTimeline(project.Timeline)
	if err != nil {
		return response.ValidationError(c, "Invalid timeline definition", nil)
	}
	if len(timeline.Segments) == 0 {
		return response.ValidationError(c, "Timeline contains no segments", nil)
	}

	job, err := h.jobs.CreateJob(c.Context(), project.ID, userID, platform)
	if err != nil {
		return response.ServiceError(c, "Failed to queue render job")
	}

	return response.Accepted(c, job.ToResponse())
}

// Batch handles POST /api/projects/batch-process
func (h *ProjectHandler) Batch(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req model.BatchProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.batch.ProcessBatch(c.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			return response.NotFound(c, "Template not found")
		}
		return response.ServiceError(c, "Failed to process batch")
	}

	return response.Accepted(c, result)
}
