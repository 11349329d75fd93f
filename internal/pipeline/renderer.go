package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clipforge/api/internal/media"
	"github.com/clipforge/api/internal/model"
)

const (
	// defaultSegmentDuration applies to textSlide and image segments
	// without an explicit duration.
	defaultSegmentDuration = 3

	textSlideFontSize = 72
	textSlideMargin   = 100
)

// AssetResolver resolves an asset reference to a local media path, scoped to
// its owner. A missing asset returns a *NotFoundError.
type AssetResolver interface {
	ResolvePath(ctx context.Context, assetID, ownerID string) (string, error)
}

// SegmentRenderer renders one timeline segment into a standalone clip at the
// target resolution.
type SegmentRenderer struct {
	backend media.Backend
	assets  AssetResolver
}

func NewSegmentRenderer(backend media.Backend, assets AssetResolver) *SegmentRenderer {
	return &SegmentRenderer{backend: backend, assets: assets}
}

// Render writes the clip for a segment to outPath. Unknown segment types and
// unresolved asset references fail the whole job; they are never skipped.
func (r *SegmentRenderer) Render(ctx context.Context, seg model.Segment, ownerID string, width, height int, outPath string) error {
	switch seg.Type {
	case model.SegmentTextSlide:
		return r.renderTextSlide(ctx, seg, width, height, outPath)

	case model.SegmentImage:
		imagePath, err := r.resolveSource(ctx, seg, ownerID)
		if err != nil {
			return &NotFoundError{Message: "Image asset not found"}
		}
		if err := r.backend.ImageToVideo(ctx, imagePath, seg.DurationSeconds(defaultSegmentDuration), width, height, outPath); err != nil {
			return &BackendError{Op: "render image segment", Err: err}
		}
		return nil

	case model.SegmentVideo, model.SegmentAsset:
		videoPath, err := r.resolveSource(ctx, seg, ownerID)
		if err != nil {
			return &NotFoundError{Message: "Video asset not found"}
		}
		if seg.OverlayText != "" {
			spec := media.OverlaySpec{
				Text:     seg.OverlayText,
				Position: seg.OverlayPosition,
				Style:    seg.OverlayStyle,
			}
			if err := r.backend.TextOverlay(ctx, videoPath, spec, outPath); err != nil {
				return &BackendError{Op: "render overlay segment", Err: err}
			}
			return nil
		}
		// No overlay: the source clip is adopted unchanged. This path does
		// not normalize resolution to the platform target; see DESIGN.md.
		if err := copyFile(videoPath, outPath); err != nil {
			return &BackendError{Op: "copy video segment", Err: err}
		}
		return nil

	default:
		return &ValidationError{Message: fmt.Sprintf("Unknown segment type: %s", seg.Type)}
	}
}

func (r *SegmentRenderer) renderTextSlide(ctx context.Context, seg model.Segment, width, height int, outPath string) error {
	text := seg.Text
	if text == "" {
		text = seg.OverlayText
	}
	if text == "" {
		text = "Text"
	}

	spec := media.TextSlideSpec{
		Lines:           wrapText(text, float64(width-textSlideMargin), textSlideFontSize),
		BackgroundColor: seg.BackgroundColor,
		DurationSeconds: seg.DurationSeconds(defaultSegmentDuration),
		Width:           width,
		Height:          height,
		FontSize:        textSlideFontSize,
	}
	if err := r.backend.TextSlide(ctx, spec, outPath); err != nil {
		return &BackendError{Op: "render text slide", Err: err}
	}
	return nil
}

// resolveSource resolves the segment's media file: an asset reference scoped
// to the owner, or a literal path.
func (r *SegmentRenderer) resolveSource(ctx context.Context, seg model.Segment, ownerID string) (string, error) {
	if seg.AssetID != "" {
		return r.assets.ResolvePath(ctx, seg.AssetID, ownerID)
	}
	if seg.Path != "" {
		return seg.Path, nil
	}
	return "", &NotFoundError{Message: "segment has no asset reference or path"}
}

// wrapText greedily wraps words so each line fits maxWidth. Without a font
// rasterizer the advance per glyph is estimated at 0.6x the font size, which
// tracks a bold sans face closely enough for slide layout.
func wrapText(text string, maxWidth float64, fontSize int) []string {
	advance := 0.6 * float64(fontSize)
	fits := func(s string) bool {
		return float64(len([]rune(s)))*advance <= maxWidth
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		test := word
		if current != "" {
			test = current + " " + word
		}
		if !fits(test) && current != "" {
			lines = append(lines, current)
			current = word
			continue
		}
		current = test
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// copyFile writes a byte-identical copy of src at dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
