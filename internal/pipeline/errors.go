package pipeline

import "errors"

// ErrJobNotFound is returned by JobStore implementations when no record
// exists for an id. The orchestrator logs and aborts without mutating state.
var ErrJobNotFound = errors.New("job not found")

// ValidationError marks a malformed timeline document, an unknown segment
// type, or a missing required field. It fails the job with its message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError marks a referenced asset or record that does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// BackendError wraps a failure of the underlying rendering/encoding backend.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *BackendError) Unwrap() error { return e.Err }
