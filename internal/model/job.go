package model

import "time"

// Job is one execution attempt rendering a project's timeline into a final
// video file. Status transitions are monotone: Queued -> Processing ->
// {Completed, Failed}. Once terminal the record is never mutated except by
// explicit deletion.
type Job struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"projectId"`
	OwnerID      string     `json:"ownerId"`
	Status       JobStatus  `json:"status"`
	Platform     string     `json:"platform,omitempty"`
	OutputPath   string     `json:"outputPath,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	QueuedAt     time.Time  `json:"queuedAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// JobResponse is the caller-facing view of a job record.
type JobResponse struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"projectId"`
	Status       JobStatus  `json:"status"`
	Platform     string     `json:"platform,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	QueuedAt     time.Time  `json:"queuedAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// ToResponse strips internal fields from a job record.
func (j *Job) ToResponse() *JobResponse {
	return &JobResponse{
		ID:           j.ID,
		ProjectID:    j.ProjectID,
		Status:       j.Status,
		Platform:     j.Platform,
		ErrorMessage: j.ErrorMessage,
		QueuedAt:     j.QueuedAt,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
	}
}
