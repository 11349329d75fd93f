package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/clipforge/api/internal/service"
)

type recordingRunner struct {
	jobIDs []string
	err    error
}

func (r *recordingRunner) Run(ctx context.Context, jobID string) error {
	r.jobIDs = append(r.jobIDs, jobID)
	return r.err
}

func TestVideoWorkerDelegatesToRunner(t *testing.T) {
	runner := &recordingRunner{}
	w := NewVideoWorker(runner)

	payload, _ := json.Marshal(service.VideoRenderPayload{JobID: "job-42"})
	task := asynq.NewTask(service.TaskTypeVideoRender, payload)

	if err := w.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}
	if len(runner.jobIDs) != 1 || runner.jobIDs[0] != "job-42" {
		t.Errorf("runner received %v, want [job-42]", runner.jobIDs)
	}
}

func TestVideoWorkerRejectsMalformedPayload(t *testing.T) {
	runner := &recordingRunner{}
	w := NewVideoWorker(runner)

	task := asynq.NewTask(service.TaskTypeVideoRender, []byte("{broken"))
	if err := w.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("expected error for malformed payload")
	}
	if len(runner.jobIDs) != 0 {
		t.Errorf("runner was called with %v", runner.jobIDs)
	}
}

func TestVideoWorkerPropagatesRunnerError(t *testing.T) {
	runner := &recordingRunner{err: fmt.Errorf("redis unreachable")}
	w := NewVideoWorker(runner)

	payload, _ := json.Marshal(service.VideoRenderPayload{JobID: "job-1"})
	task := asynq.NewTask(service.TaskTypeVideoRender, payload)

	if err := w.ProcessTask(context.Background(), task); err == nil {
		t.Fatal("expected runner error to propagate")
	}
}
