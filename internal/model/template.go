package model

import "time"

// Template is a reusable timeline with an optional content-placeholder
// segment that batch processing substitutes per content video.
type Template struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"ownerId"`
	Name       string     `json:"name"`
	Platform   string     `json:"platform,omitempty"`
	Timeline   string     `json:"timeline"` // JSON timeline document
	IsDefault  bool       `json:"isDefault"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
}

// CreateTemplateRequest is the payload for creating a template.
type CreateTemplateRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Platform  string `json:"platform,omitempty"`
	Timeline  string `json:"timeline" validate:"required"`
	IsDefault bool   `json:"isDefault"`
}

// UpdateTemplateRequest is the payload for updating a template.
type UpdateTemplateRequest struct {
	Name      string `json:"name,omitempty" validate:"omitempty,max=200"`
	Platform  string `json:"platform,omitempty"`
	Timeline  string `json:"timeline,omitempty"`
	IsDefault *bool  `json:"isDefault,omitempty"`
}

// BatchProcessRequest renders one video per content asset using a template.
type BatchProcessRequest struct {
	TemplateID      string   `json:"templateId" validate:"required"`
	ContentVideoIDs []string `json:"contentVideoIds" validate:"required,min=1"`
}

// BatchProcessResponse lists the jobs created for a batch.
type BatchProcessResponse struct {
	JobIDs     []string `json:"jobIds"`
	TotalCount int      `json:"totalCount"`
}
