package model

// Job status
type JobStatus string

const (
	JobStatusQueued     JobStatus = "Queued"
	JobStatusProcessing JobStatus = "Processing"
	JobStatusCompleted  JobStatus = "Completed"
	JobStatusFailed     JobStatus = "Failed"
)

// IsTerminal reports whether a job in this status can never change again.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Project status
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "Draft"
	ProjectStatusProcessing ProjectStatus = "Processing"
	ProjectStatusCompleted  ProjectStatus = "Completed"
	ProjectStatusFailed     ProjectStatus = "Failed"
)

// Segment types
type SegmentType string

const (
	SegmentTextSlide SegmentType = "textSlide"
	SegmentImage     SegmentType = "image"
	SegmentVideo     SegmentType = "video"
	SegmentAsset     SegmentType = "asset"

	// SegmentContentPlaceholder only ever appears in templates. The batch
	// service substitutes it with a concrete asset segment before a job is
	// created; the pipeline treats it like any other unknown type.
	SegmentContentPlaceholder SegmentType = "content-placeholder"
)

// Overlay anchors
type OverlayPosition string

const (
	OverlayTopLeft      OverlayPosition = "top-left"
	OverlayTopCenter    OverlayPosition = "top-center"
	OverlayTopRight     OverlayPosition = "top-right"
	OverlayCenter       OverlayPosition = "center"
	OverlayBottomLeft   OverlayPosition = "bottom-left"
	OverlayBottomCenter OverlayPosition = "bottom-center"
	OverlayBottomRight  OverlayPosition = "bottom-right"
)

// Asset types
type AssetType string

const (
	AssetTypeVideo AssetType = "Video"
	AssetTypeImage AssetType = "Image"
	AssetTypeAudio AssetType = "Audio"
)
