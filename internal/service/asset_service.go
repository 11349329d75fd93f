package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clipforge/api/internal/media"
	"github.com/clipforge/api/internal/model"
	"github.com/clipforge/api/internal/pipeline"
)

// ErrAssetNotFound is returned for missing or foreign asset records.
var ErrAssetNotFound = fmt.Errorf("asset not found")

// ErrUnsupportedFileType is returned on upload of an unknown extension.
var ErrUnsupportedFileType = fmt.Errorf("file type is not supported")

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = fmt.Errorf("file size exceeds the upload limit")

var allowedVideoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

var allowedImageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true,
}

var allowedAudioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".aac": true, ".m4a": true,
}

const (
	thumbnailWidth  = 320
	thumbnailHeight = 180
)

// AssetService manages the uploaded media library. It implements
// pipeline.AssetResolver for the segment renderer.
type AssetService struct {
	redis      *redis.Client
	backend    media.Backend
	uploadPath string
	maxBytes   int64
}

func NewAssetService(redisClient *redis.Client, backend media.Backend, uploadPath string, maxUploadMB int64) *AssetService {
	return &AssetService{
		redis:      redisClient,
		backend:    backend,
		uploadPath: uploadPath,
		maxBytes:   maxUploadMB * 1024 * 1024,
	}
}

// UploadAsset stores an uploaded file under the owner's directory and
// records its metadata. Videos get a probed duration and a snapshot
// thumbnail; a thumbnail failure never fails the upload.
func (s *AssetService) UploadAsset(ctx context.Context, ownerID, filename string, file io.Reader, fileSize int64, tags []string) (*model.Asset, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	assetType, ok := assetTypeForExtension(ext)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}
	if fileSize > s.maxBytes {
		return nil, fmt.Errorf("%w (%dMB)", ErrFileTooLarge, s.maxBytes/(1024*1024))
	}

	ownerDir := filepath.Join(s.uploadPath, ownerID)
	if err := os.MkdirAll(ownerDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	storagePath := filepath.Join(ownerDir, uuid.New().String()+ext)
	out, err := os.Create(storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(storagePath)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(storagePath)
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	asset := &model.Asset{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Filename:    filename,
		StoragePath: storagePath,
		Type:        assetType,
		Tags:        tags,
		FileSize:    fileSize,
		UploadedAt:  time.Now().UTC(),
	}

	switch assetType {
	case model.AssetTypeVideo:
		if dur, err := s.backend.Probe(ctx, storagePath); err != nil {
			log.Printf("Failed to probe %s: %v", filename, err)
		} else {
			asset.Duration = &dur
		}
		asset.ThumbnailPath = s.makeThumbnail(ctx, storagePath, ownerDir, 1)
	case model.AssetTypeImage:
		asset.ThumbnailPath = s.makeThumbnail(ctx, storagePath, ownerDir, 0)
	}

	if err := s.saveAsset(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to save asset: %w", err)
	}
	return asset, nil
}

// makeThumbnail snapshots a frame for library browsing, best effort. The
// backend retries seeks at offset zero for clips shorter than the offset.
func (s *AssetService) makeThumbnail(ctx context.Context, sourcePath, ownerDir string, offsetSeconds float64) string {
	thumbPath := filepath.Join(ownerDir, "thumb_"+uuid.New().String()+".jpg")
	if err := s.backend.Snapshot(ctx, sourcePath, offsetSeconds, thumbnailWidth, thumbnailHeight, thumbPath); err != nil {
		log.Printf("Failed to generate thumbnail for %s: %v", sourcePath, err)
		return ""
	}
	return thumbPath
}

// ResolvePath implements pipeline.AssetResolver.
func (s *AssetService) ResolvePath(ctx context.Context, assetID, ownerID string) (string, error) {
	asset, err := s.GetAsset(ctx, assetID, ownerID)
	if err != nil {
		return "", &pipeline.NotFoundError{Message: "asset " + assetID + " not found"}
	}
	return asset.StoragePath, nil
}

// GetAsset returns an asset only if it belongs to the owner.
func (s *AssetService) GetAsset(ctx context.Context, id, ownerID string) (*model.Asset, error) {
	data, err := s.redis.Get(ctx, assetKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}

	var asset model.Asset
	if err := json.Unmarshal(data, &asset); err != nil {
		return nil, err
	}
	if asset.OwnerID != ownerID {
		return nil, ErrAssetNotFound
	}
	return &asset, nil
}

// ListAssets returns the owner's assets, newest first, narrowed by filter.
func (s *AssetService) ListAssets(ctx context.Context, ownerID string, filter *model.AssetFilter) ([]*model.Asset, error) {
	ids, err := s.redis.ZRevRange(ctx, ownerAssetsKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	assets := make([]*model.Asset, 0, len(ids))
	for _, id := range ids {
		asset, err := s.GetAsset(ctx, id, ownerID)
		if err != nil {
			continue
		}
		if filter != nil && !matchesFilter(asset, filter) {
			continue
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// UpdateTags replaces an asset's tags.
func (s *AssetService) UpdateTags(ctx context.Context, id, ownerID string, tags []string) (*model.Asset, error) {
	asset, err := s.GetAsset(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	asset.Tags = tags
	if err := s.saveAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// DeleteAsset removes the record and its stored files.
func (s *AssetService) DeleteAsset(ctx context.Context, id, ownerID string) error {
	asset, err := s.GetAsset(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := os.Remove(asset.StoragePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to delete asset file %s: %v", asset.StoragePath, err)
	}
	if asset.ThumbnailPath != "" {
		if err := os.Remove(asset.ThumbnailPath); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to delete thumbnail %s: %v", asset.ThumbnailPath, err)
		}
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, assetKey(id))
	pipe.ZRem(ctx, ownerAssetsKey(ownerID), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *AssetService) saveAsset(ctx context.Context, asset *model.Asset) error {
	data, err := json.Marshal(asset)
	if err != nil {
		return err
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, assetKey(asset.ID), data, 0)
	pipe.ZAdd(ctx, ownerAssetsKey(asset.OwnerID), redis.Z{
		Score:  float64(asset.UploadedAt.Unix()),
		Member: asset.ID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func assetTypeForExtension(ext string) (model.AssetType, bool) {
	switch {
	case allowedVideoExtensions[ext]:
		return model.AssetTypeVideo, true
	case allowedImageExtensions[ext]:
		return model.AssetTypeImage, true
	case allowedAudioExtensions[ext]:
		return model.AssetTypeAudio, true
	default:
		return "", false
	}
}

func matchesFilter(asset *model.Asset, filter *model.AssetFilter) bool {
	if filter.Type != "" && string(asset.Type) != filter.Type {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(asset.Filename), strings.ToLower(filter.Search)) {
		return false
	}
	if filter.Tag != "" {
		found := false
		for _, t := range asset.Tags {
			if t == filter.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func assetKey(id string) string { return "asset:" + id }

func ownerAssetsKey(ownerID string) string { return "user:" + ownerID + ":assets" }
