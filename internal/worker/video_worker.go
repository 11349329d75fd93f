package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/clipforge/api/internal/service"
)

// PipelineRunner executes the render pipeline for one job.
type PipelineRunner interface {
	Run(ctx context.Context, jobID string) error
}

// VideoWorker processes video render tasks from the queue.
type VideoWorker struct {
	runner PipelineRunner
}

// NewVideoWorker creates a new video worker
func NewVideoWorker(runner PipelineRunner) *VideoWorker {
	return &VideoWorker{runner: runner}
}

// ProcessTask handles a video render task. Failures are recorded on the
// job record by the pipeline itself; returning nil here keeps asynq from
// retrying a job that already transitioned to a terminal state.
func (w *VideoWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload service.VideoRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal render payload: %w", err)
	}

	log.Printf("Starting render job: %s", payload.JobID)
	if err := w.runner.Run(ctx, payload.JobID); err != nil {
		return fmt.Errorf("render job %s: %w", payload.JobID, err)
	}

	log.Printf("Render job %s finished", payload.JobID)
	return nil
}
