package model

// WebSocket message types
const (
	WSMessageTypeStatusChanged  = "jobStatusChanged"
	WSMessageTypeJobCompleted   = "jobCompleted"
	WSMessageTypeBatchCompleted = "batchCompleted"
	WSMessageTypePing           = "ping"
	WSMessageTypePong           = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSStatusChangedMessage announces a job status transition.
type WSStatusChangedMessage struct {
	Type         string    `json:"type"`
	JobID        string    `json:"jobId"`
	Status       JobStatus `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// WSJobCompletedMessage announces a finished render.
type WSJobCompletedMessage struct {
	Type     string `json:"type"`
	JobID    string `json:"jobId"`
	Platform string `json:"platform"`
}

// WSBatchCompletedMessage announces that a batch submission produced jobs.
type WSBatchCompletedMessage struct {
	Type   string   `json:"type"`
	JobIDs []string `json:"jobIds"`
}
