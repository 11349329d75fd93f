// Package media wraps the external rendering/encoding backend behind a
// narrow capability contract. All clips are produced as H.264 CRF 23,
// yuv420p, 30 fps; concatenated output adds AAC audio.
package media

import (
	"context"

	"github.com/clipforge/api/internal/model"
)

// TextSlideSpec describes a text slide clip. Lines are pre-wrapped by the
// caller and drawn horizontally centered, with the block vertically centered.
type TextSlideSpec struct {
	Lines           []string
	BackgroundColor string // hex or ffmpeg color name; empty means black
	DurationSeconds int
	Width           int
	Height          int
	FontSize        int
}

// OverlaySpec describes a burned-in text overlay for an existing clip.
type OverlaySpec struct {
	Text     string
	Position model.OverlayPosition
	Style    *model.OverlayStyle
}

// Backend is the media capability contract consumed by the pipeline and the
// asset library. Implementations are expected to be safe for concurrent use.
type Backend interface {
	// Probe returns the duration of a media file in seconds.
	Probe(ctx context.Context, path string) (float64, error)

	// Snapshot writes a single frame of the video at the given offset,
	// scaled to width x height. A failure at a non-zero offset is retried
	// once at offset zero.
	Snapshot(ctx context.Context, path string, offsetSeconds float64, width, height int, outPath string) error

	// ImageToVideo letterboxes a still image onto a black canvas of the
	// target resolution and encodes a fixed-duration clip.
	ImageToVideo(ctx context.Context, imagePath string, durationSeconds, width, height int, outPath string) error

	// TextSlide renders a solid-background clip with the given text lines.
	TextSlide(ctx context.Context, spec TextSlideSpec, outPath string) error

	// TextOverlay re-encodes a clip with text burned in at the given anchor
	// over a semi-opaque background box.
	TextOverlay(ctx context.Context, videoPath string, spec OverlaySpec, outPath string) error

	// Concat joins the clips at the given paths, in order, into one output.
	Concat(ctx context.Context, orderedPaths []string, outPath string) error
}
