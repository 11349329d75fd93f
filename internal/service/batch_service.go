package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/pipeline"
)

// BatchService renders one video per content asset from a template. The
// template's content-placeholder segment is substituted with a concrete
// asset segment before the job is created, so the pipeline never sees a
// placeholder.
type BatchService struct {
	assets    *AssetService
	templates *TemplateService
	projects  *ProjectService
	jobs      *JobService
	notifier  pipeline.Notifier
}

func NewBatchService(assets *AssetService, templates *TemplateService, projects *ProjectService, jobs *JobService, notifier pipeline.Notifier) *BatchService {
	return &BatchService{
		assets:    assets,
		templates: templates,
		projects:  projects,
		jobs:      jobs,
		notifier:  notifier,
	}
}

// ProcessBatch creates a project and a queued job per content video id.
// Missing assets are skipped with a log line; each created job id is
// enqueued exactly once.
func (s *BatchService) ProcessBatch(ctx context.Context, ownerID string, req *model.BatchProcessRequest) (*model.BatchProcessResponse, error) {
	tmpl, err := s.templates.GetTemplate(ctx, req.TemplateID, ownerID)
	if err != nil {
		return nil, err
	}

	jobIDs := make([]string, 0, len(req.ContentVideoIDs))
	for _, contentVideoID := range req.ContentVideoIDs {
		asset, err := s.assets.GetAsset(ctx, contentVideoID, ownerID)
		if err != nil {
			log.Printf("Asset %s not found for user %s, skipping", contentVideoID, ownerID)
			continue
		}

		timelineJSON, err := substitutePlaceholder(tmpl.Timeline, contentVideoID)
		if err != nil {
			log.Printf("Template %s timeline invalid, skipping %s: %v", tmpl.ID, contentVideoID, err)
			continue
		}

		project, err := s.projects.CreateProject(ctx, ownerID, &model.CreateProjectRequest{
			Name:     fmt.Sprintf("Batch %s - %s", time.Now().UTC().Format("2006-01-02"), asset.Filename),
			Timeline: timelineJSON,
		})
		if err != nil {
			return nil, err
		}

		job, err := s.jobs.CreateJob(ctx, project.ID, ownerID, tmpl.Platform)
		if err != nil {
			return nil, err
		}
		jobIDs = append(jobIDs, job.ID)
	}

	s.templates.TouchLastUsed(ctx, tmpl)
	if len(jobIDs) > 0 {
		s.notifier.BatchCompleted(ownerID, jobIDs)
	}

	return &model.BatchProcessResponse{
		JobIDs:     jobIDs,
		TotalCount: len(jobIDs),
	}, nil
}

// substitutePlaceholder rewrites the first content-placeholder segment into
// a concrete asset segment referencing the content video.
func substitutePlaceholder(timelineJSON, assetID string) (string, error) {
	timeline, err := model.ParseTimeline(timelineJSON)
	if err != nil {
		return "", err
	}

	for i := range timeline.Segments {
		if timeline.Segments[i].Type == model.SegmentContentPlaceholder {
			timeline.Segments[i].Type = model.SegmentAsset
			timeline.Segments[i].AssetID = assetID
			break
		}
	}

	data, err := json.Marshal(timeline)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
