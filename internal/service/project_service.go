package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/model"
)

// ErrProjectNotFound is returned for missing or foreign project records.
var ErrProjectNotFound = fmt.Errorf("project not found")

// ProjectService manages project records. It implements
// pipeline.ProjectStore so the orchestrator can mirror job status.
type ProjectService struct {
	redis     *redis.Client
	templates *TemplateService
}

func NewProjectService(redisClient *redis.Client, templates *TemplateService) *ProjectService {
	return &ProjectService{redis: redisClient, templates: templates}
}

// CreateProject stores a new draft project.
func (s *ProjectService) CreateProject(ctx context.Context, ownerID string, req *model.CreateProjectRequest) (*model.Project, error) {
	now := time.Now().UTC()
	project := &model.Project{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Name:       req.Name,
		Timeline:   req.Timeline,
		Status:     model.ProjectStatusDraft,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := s.SaveProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	return project, nil
}

// CreateFromTemplate clones a template's timeline into a new draft project
// and stamps the template's last-used time.
func (s *ProjectService) CreateFromTemplate(ctx context.Context, ownerID string, req *model.CreateFromTemplateRequest) (*model.Project, error) {
	tmpl, err := s.templates.GetTemplate(ctx, req.TemplateID, ownerID)
	if err != nil {
		return nil, err
	}

	project, err := s.CreateProject(ctx, ownerID, &model.CreateProjectRequest{
		Name:     req.Name,
		Timeline: tmpl.Timeline,
	})
	if err != nil {
		return nil, err
	}

	s.templates.TouchLastUsed(ctx, tmpl)
	return project, nil
}

// GetProject implements pipeline.ProjectStore.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*model.Project, error) {
	data, err := s.redis.Get(ctx, projectKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	var project model.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// SaveProject implements pipeline.ProjectStore.
func (s *ProjectService) SaveProject(ctx context.Context, project *model.Project) error {
	data, err := json.Marshal(project)
	if err != nil {
		return err
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, projectKey(project.ID), data, 0)
	pipe.ZAdd(ctx, ownerProjectsKey(project.OwnerID), redis.Z{
		Score:  float64(project.CreatedAt.Unix()),
		Member: project.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// GetOwnedProject returns a project only if it belongs to the owner.
func (s *ProjectService) GetOwnedProject(ctx context.Context, id, ownerID string) (*model.Project, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != ownerID {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// ListProjects returns the owner's projects, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, ownerID string) ([]*model.Project, error) {
	ids, err := s.redis.ZRevRange(ctx, ownerProjectsKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	projects := make([]*model.Project, 0, len(ids))
	for _, id := range ids {
		project, err := s.GetProject(ctx, id)
		if err != nil {
			continue
		}
		projects = append(projects, project)
	}
	return projects, nil
}

// UpdateProject applies partial changes to a draft's name or timeline.
func (s *ProjectService) UpdateProject(ctx context.Context, id, ownerID string, req *model.UpdateProjectRequest) (*model.Project, error) {
	project, err := s.GetOwnedProject(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		project.Name = req.Name
	}
	if req.Timeline != "" {
		project.Timeline = req.Timeline
	}
	project.ModifiedAt = time.Now().UTC()

	if err := s.SaveProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject removes a project record.
func (s *ProjectService) DeleteProject(ctx context.Context, id, ownerID string) error {
	if _, err := s.GetOwnedProject(ctx, id, ownerID); err != nil {
		return err
	}
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, projectKey(id))
	pipe.ZRem(ctx, ownerProjectsKey(ownerID), id)
	_, err := pipe.Exec(ctx)
	return err
}

func projectKey(id string) string { return "project:" + id }

func ownerProjectsKey(ownerID string) string { return "user:" + ownerID + ":projects" }
