package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/model"
)

// ErrTemplateNotFound is returned for missing or foreign template records.
var ErrTemplateNotFound = fmt.Errorf("template not found")

// TemplateService manages reusable timeline templates.
type TemplateService struct {
	redis *redis.Client
}

func NewTemplateService(redisClient *redis.Client) *TemplateService {
	return &TemplateService{redis: redisClient}
}

// CreateTemplate stores a new template.
func (s *TemplateService) CreateTemplate(ctx context.Context, ownerID string, req *model.CreateTemplateRequest) (*model.Template, error) {
	tmpl := &model.Template{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      req.Name,
		Platform:  req.Platform,
		Timeline:  req.Timeline,
		IsDefault: req.IsDefault,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.saveTemplate(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	return tmpl, nil
}

// GetTemplate returns a template only if it belongs to the owner.
func (s *TemplateService) GetTemplate(ctx context.Context, id, ownerID string) (*model.Template, error) {
	data, err := s.redis.Get(ctx, templateKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	var tmpl model.Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, err
	}
	if tmpl.OwnerID != ownerID {
		return nil, ErrTemplateNotFound
	}
	return &tmpl, nil
}

// ListTemplates returns the owner's templates, optionally filtered by
// platform, newest first.
func (s *TemplateService) ListTemplates(ctx context.Context, ownerID, platformFilter string) ([]*model.Template, error) {
	ids, err := s.redis.ZRevRange(ctx, ownerTemplatesKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	templates := make([]*model.Template, 0, len(ids))
	for _, id := range ids {
		tmpl, err := s.GetTemplate(ctx, id, ownerID)
		if err != nil {
			continue
		}
		if platformFilter != "" && tmpl.Platform != platformFilter {
			continue
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// UpdateTemplate applies partial changes.
func (s *TemplateService) UpdateTemplate(ctx context.Context, id, ownerID string, req *model.UpdateTemplateRequest) (*model.Template, error) {
	tmpl, err := s.GetTemplate(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		tmpl.Name = req.Name
	}
	if req.Platform != "" {
		tmpl.Platform = req.Platform
	}
	if req.Timeline != "" {
		tmpl.Timeline = req.Timeline
	}
	if req.IsDefault != nil {
		tmpl.IsDefault = *req.IsDefault
	}

	if err := s.saveTemplate(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// DeleteTemplate removes a template record.
func (s *TemplateService) DeleteTemplate(ctx context.Context, id, ownerID string) error {
	if _, err := s.GetTemplate(ctx, id, ownerID); err != nil {
		return err
	}
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, templateKey(id))
	pipe.ZRem(ctx, ownerTemplatesKey(ownerID), id)
	_, err := pipe.Exec(ctx)
	return err
}

// TouchLastUsed stamps the template's last-used time, best effort.
func (s *TemplateService) TouchLastUsed(ctx context.Context, tmpl *model.Template) {
	now := time.Now().UTC()
	tmpl.LastUsedAt = &now
	if err := s.saveTemplate(ctx, tmpl); err != nil {
		log.Printf("Failed to stamp template %s last-used: %v", tmpl.ID, err)
	}
}

func (s *TemplateService) saveTemplate(ctx context.Context, tmpl *model.Template) error {
	data, err := json.Marshal(tmpl)
	if err != nil {
		return err
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, templateKey(tmpl.ID), data, 0)
	pipe.ZAdd(ctx, ownerTemplatesKey(tmpl.OwnerID), redis.Z{
		Score:  float64(tmpl.CreatedAt.Unix()),
		Member: tmpl.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func templateKey(id string) string { return "template:" + id }

func ownerTemplatesKey(ownerID string) string { return "user:" + ownerID + ":templates" }
