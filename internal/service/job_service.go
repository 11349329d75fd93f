package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/pipeline"
)

const (
	TaskTypeVideoRender = "video:render"
	TaskTypeTempCleanup = "maintenance:temp-cleanup"

	// QueueVideo is the queue all render jobs go through.
	QueueVideo = "video"
)

// VideoRenderPayload is the asynq task payload for one render job.
type VideoRenderPayload struct {
	JobID string `json:"jobId"`
}

// JobService manages processing job records and their queue submissions. It
// implements pipeline.JobStore; the orchestrator is the sole writer while a
// job executes.
type JobService struct {
	redis       *redis.Client
	asynqClient *asynq.Client
}

func NewJobService(redisClient *redis.Client, asynqClient *asynq.Client) *JobService {
	return &JobService{
		redis:       redisClient,
		asynqClient: asynqClient,
	}
}

// CreateJob creates a Queued job record for a project and enqueues exactly
// one execution. The task id equals the job id, so a duplicate submission of
// the same job can never produce a second concurrent run; failed jobs are
// resubmitted by creating a fresh job, never by retrying this one.
func (s *JobService) CreateJob(ctx context.Context, projectID, ownerID, platform string) (*model.Job, error) {
	job := &model.Job{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		OwnerID:   ownerID,
		Status:    model.JobStatusQueued,
		Platform:  platform,
		QueuedAt:  time.Now().UTC(),
	}

	if err := s.SaveJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newVideoRenderTask(job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue(QueueVideo),
		asynq.TaskID(job.ID),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job, nil
}

// GetJob implements pipeline.JobStore.
func (s *JobService) GetJob(ctx context.Context, id string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, pipeline.ErrJobNotFound
		}
		return nil, err
	}

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// SaveJob implements pipeline.JobStore.
func (s *JobService) SaveJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, jobKey(job.ID), data, 0)
	pipe.ZAdd(ctx, ownerJobsKey(job.OwnerID), redis.Z{
		Score:  float64(job.QueuedAt.Unix()),
		Member: job.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// GetOwnedJob returns a job only if it belongs to the owner.
func (s *JobService) GetOwnedJob(ctx context.Context, id, ownerID string) (*model.Job, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.OwnerID != ownerID {
		return nil, pipeline.ErrJobNotFound
	}
	return job, nil
}

// ListJobs returns the owner's jobs, most recently queued first.
func (s *JobService) ListJobs(ctx context.Context, ownerID string) ([]*model.JobResponse, error) {
	ids, err := s.redis.ZRevRange(ctx, ownerJobsKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]*model.JobResponse, 0, len(ids))
	for _, id := range ids {
		job, err := s.GetJob(ctx, id)
		if err != nil {
			continue // index entry for a deleted record
		}
		jobs = append(jobs, job.ToResponse())
	}
	return jobs, nil
}

// ListJobsForProject returns the owner's jobs for one project.
func (s *JobService) ListJobsForProject(ctx context.Context, projectID, ownerID string) ([]*model.JobResponse, error) {
	all, err := s.ListJobs(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	jobs := make([]*model.JobResponse, 0)
	for _, j := range all {
		if j.ProjectID == projectID {
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

// DeleteJob removes a job record and its rendered output file. This is the
// only mutation permitted on a terminal job.
func (s *JobService) DeleteJob(ctx context.Context, id, ownerID string) error {
	job, err := s.GetOwnedJob(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if job.OutputPath != "" {
		if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete output file: %w", err)
		}
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, jobKey(id))
	pipe.ZRem(ctx, ownerJobsKey(ownerID), id)
	_, err = pipe.Exec(ctx)
	return err
}

func newVideoRenderTask(jobID string) (*asynq.Task, error) {
	data, err := json.Marshal(VideoRenderPayload{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeVideoRender, data), nil
}

func jobKey(id string) string { return "job:" + id }

func ownerJobsKey(ownerID string) string { return "user:" + ownerID + ":jobs" }
