package model

import "time"

// Asset is an uploaded media file in a user's library.
type Asset struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId"`
	Filename      string    `json:"filename"`
	StoragePath   string    `json:"storagePath"`
	Type          AssetType `json:"type"`
	Tags          []string  `json:"tags,omitempty"`
	Duration      *float64  `json:"duration,omitempty"` // seconds, videos only
	ThumbnailPath string    `json:"thumbnailPath,omitempty"`
	FileSize      int64     `json:"fileSize"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// AssetFilter narrows asset listings.
type AssetFilter struct {
	Type   string `query:"type"`
	Search string `query:"search"`
	Tag    string `query:"tag"`
}

// UpdateTagsRequest replaces an asset's tag list.
type UpdateTagsRequest struct {
	Tags []string `json:"tags" validate:"required"`
}
