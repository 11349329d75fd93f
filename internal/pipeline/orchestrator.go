// Package pipeline contains the video assembly core: the per-job state
// machine and the segment renderer. One orchestrator run owns exactly one
// job, its project's status mirror, and the temporary artifacts it creates.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/api/internal/media"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/platform"
)

// JobStore holds job records keyed by id. The orchestrator is the sole
// writer for a job during its one execution window.
type JobStore interface {
	GetJob(ctx context.Context, id string) (*model.Job, error)
	SaveJob(ctx context.Context, job *model.Job) error
}

// ProjectStore provides the owning project for status mirroring and the
// serialized timeline document.
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
	SaveProject(ctx context.Context, project *model.Project) error
}

// Notifier publishes job-status events to subscribers. Delivery is
// fire-and-forget; implementations must never block the pipeline.
type Notifier interface {
	JobStatusChanged(ownerID, jobID string, status model.JobStatus, errorMessage string)
	JobCompleted(ownerID, jobID, platform string)
	BatchCompleted(ownerID string, jobIDs []string)
}

// Publisher copies a completed output into remote object storage so
// download redirects resolve to a real object. Optional; a nil publisher
// means outputs are served from local disk only.
type Publisher interface {
	PublishFile(ctx context.Context, localPath, key string) error
}

// Orchestrator executes the full render pipeline for one job.
type Orchestrator struct {
	jobs      JobStore
	projects  ProjectStore
	renderer  *SegmentRenderer
	backend   media.Backend
	notifier  Notifier
	publisher Publisher

	outputDir string
	tempDir   string
}

func NewOrchestrator(jobs JobStore, projects ProjectStore, renderer *SegmentRenderer, backend media.Backend, notifier Notifier, publisher Publisher, outputDir, tempDir string) *Orchestrator {
	return &Orchestrator{
		jobs:      jobs,
		projects:  projects,
		renderer:  renderer,
		backend:   backend,
		notifier:  notifier,
		publisher: publisher,
		outputDir: outputDir,
		tempDir:   tempDir,
	}
}

// Run executes a single attempt for the job. All pipeline failures are
// converted into a terminal Failed state on the job record and never leak to
// the caller; only infrastructure errors (store unreachable) are returned.
// Re-running a failed job requires a fresh enqueue.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, err := o.jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			log.Printf("Processing job %s not found, nothing to update", jobID)
			return nil
		}
		return fmt.Errorf("load job %s: %w", jobID, err)
	}

	// Status transitions are monotone; a record past Queued is never
	// touched again by a new run.
	if job.Status != model.JobStatusQueued {
		log.Printf("Job %s is already %s, skipping", jobID, job.Status)
		return nil
	}

	startedAt := time.Now().UTC()
	job.Status = model.JobStatusProcessing
	job.StartedAt = &startedAt
	if err := o.jobs.SaveJob(ctx, job); err != nil {
		return fmt.Errorf("save job %s: %w", jobID, err)
	}
	o.notifier.JobStatusChanged(job.OwnerID, job.ID, model.JobStatusProcessing, "")

	var tempFiles []string
	defer func() {
		// Best-effort cleanup of every intermediate artifact this run
		// created, on every exit path. Failures never change the job's
		// already-recorded terminal status.
		for _, f := range tempFiles {
			if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
				log.Printf("Temp file cleanup %s: %v", f, err)
			}
		}
	}()

	project, outputPath, runErr := o.process(ctx, job, &tempFiles)
	if runErr != nil {
		log.Printf("Job %s failed: %v", jobID, runErr)
		o.finish(ctx, job, project, model.JobStatusFailed, "", runErr.Error())
		return nil
	}

	// Publish the output before the terminal notification fires, so a
	// subscriber reacting to it finds the object already in place. A
	// publish failure keeps the job Completed; the file stays on disk
	// and downloads fall back to local streaming.
	if o.publisher != nil {
		if err := o.publisher.PublishFile(ctx, outputPath, filepath.Base(outputPath)); err != nil {
			log.Printf("Publish output for job %s: %v", jobID, err)
		}
	}

	log.Printf("Job %s completed, output %s", jobID, outputPath)
	o.finish(ctx, job, project, model.JobStatusCompleted, outputPath, "")
	return nil
}

// process renders all segments and combines them into the final output. The
// returned project is non-nil once loaded so the caller can mirror status.
func (o *Orchestrator) process(ctx context.Context, job *model.Job, tempFiles *[]string) (*model.Project, string, error) {
	project, err := o.projects.GetProject(ctx, job.ProjectID)
	if err != nil {
		return nil, "", &NotFoundError{Message: "Project not found"}
	}

	timeline, err := model.ParseTimeline(project.Timeline)
	if err != nil {
		return project, "", &ValidationError{Message: err.Error()}
	}
	if len(timeline.Segments) == 0 {
		return project, "", &ValidationError{Message: "Timeline contains no segments"}
	}

	profile := platform.Resolve(job.Platform)

	// Strictly sequential in ascending order; concatenation correctness
	// depends on it. Each artifact is registered before rendering so a
	// partial file from a failed segment is cleaned up too.
	for _, seg := range timeline.OrderedSegments() {
		tempPath := filepath.Join(o.tempDir, uuid.New().String()+".mp4")
		*tempFiles = append(*tempFiles, tempPath)

		if err := o.renderer.Render(ctx, seg, job.OwnerID, profile.Width, profile.Height, tempPath); err != nil {
			return project, "", err
		}
	}

	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return project, "", &BackendError{Op: "create output dir", Err: err}
	}
	outputPath := filepath.Join(o.outputDir,
		fmt.Sprintf("%s_%s_%s.mp4", job.ID, job.Platform, time.Now().UTC().Format("20060102150405")))

	if len(*tempFiles) == 1 {
		// Single segment: adopt the rendered artifact byte for byte.
		if err := copyFile((*tempFiles)[0], outputPath); err != nil {
			os.Remove(outputPath)
			return project, "", &BackendError{Op: "copy output", Err: err}
		}
	} else {
		if err := o.backend.Concat(ctx, *tempFiles, outputPath); err != nil {
			os.Remove(outputPath)
			return project, "", &BackendError{Op: "concatenate segments", Err: err}
		}
	}

	return project, outputPath, nil
}

// finish records the terminal state, mirrors it onto the project, and
// notifies subscribers.
func (o *Orchestrator) finish(ctx context.Context, job *model.Job, project *model.Project, status model.JobStatus, outputPath, errorMessage string) {
	completedAt := time.Now().UTC()
	job.Status = status
	job.CompletedAt = &completedAt
	job.OutputPath = outputPath
	job.ErrorMessage = errorMessage
	if err := o.jobs.SaveJob(ctx, job); err != nil {
		log.Printf("Save job %s terminal state: %v", job.ID, err)
	}

	if project != nil {
		if status == model.JobStatusCompleted {
			project.Status = model.ProjectStatusCompleted
		} else {
			project.Status = model.ProjectStatusFailed
		}
		project.ModifiedAt = completedAt
		if err := o.projects.SaveProject(ctx, project); err != nil {
			log.Printf("Save project %s status: %v", project.ID, err)
		}
	}

	if status == model.JobStatusCompleted {
		o.notifier.JobCompleted(job.OwnerID, job.ID, job.Platform)
	} else {
		o.notifier.JobStatusChanged(job.OwnerID, job.ID, status, errorMessage)
	}
}
