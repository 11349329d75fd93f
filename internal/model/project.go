package model

import "time"

// Project owns a serialized timeline document. Its status mirrors the most
// recent job's terminal status.
type Project struct {
	ID         string        `json:"id"`
	OwnerID    string        `json:"ownerId"`
	Name       string        `json:"name"`
	Timeline   string        `json:"timeline"` // JSON timeline document
	Status     ProjectStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	ModifiedAt time.Time     `json:"modifiedAt"`
}

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Timeline string `json:"timeline" validate:"required"`
}

// UpdateProjectRequest is the payload for updating a project.
type UpdateProjectRequest struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=200"`
	Timeline string `json:"timeline,omitempty"`
}

// CreateFromTemplateRequest creates a project from a stored template.
type CreateFromTemplateRequest struct {
	TemplateID string `json:"templateId" validate:"required"`
	Name       string `json:"name" validate:"required,max=200"`
}

// ProjectResponse is the caller-facing view of a project.
type ProjectResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Timeline   string         `json:"timeline"`
	Status     ProjectStatus  `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`
	ModifiedAt time.Time      `json:"modifiedAt"`
	Jobs       []*JobResponse `json:"jobs,omitempty"`
}
