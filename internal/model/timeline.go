package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Timeline is the persisted timeline document describing the segments that
// compose one output video.
type Timeline struct {
	Segments       []Segment      `json:"segments"`
	OutputSettings OutputSettings `json:"outputSettings"`
}

// Segment is the smallest renderable unit of a timeline.
type Segment struct {
	ID              string          `json:"id"`
	Type            SegmentType     `json:"type"`
	AssetID         string          `json:"assetId,omitempty"`
	Path            string          `json:"path,omitempty"`
	Duration        *float64        `json:"duration,omitempty"`
	OverlayText     string          `json:"overlayText,omitempty"`
	OverlayPosition OverlayPosition `json:"overlayPosition,omitempty"`
	OverlayStyle    *OverlayStyle   `json:"overlayStyle,omitempty"`
	Text            string          `json:"text,omitempty"`
	BackgroundColor string          `json:"backgroundColor,omitempty"`
	Order           int             `json:"order"`
}

// DurationSeconds returns the segment duration, falling back to the given
// default when the field is absent.
func (s *Segment) DurationSeconds(def int) int {
	if s.Duration == nil {
		return def
	}
	return int(*s.Duration)
}

// OverlayStyle controls the burned-in text appearance for video/asset segments.
type OverlayStyle struct {
	FontSize          int     `json:"fontSize,omitempty"`
	FontColor         string  `json:"fontColor,omitempty"`
	BackgroundColor   string  `json:"backgroundColor,omitempty"`
	BackgroundOpacity float64 `json:"backgroundOpacity,omitempty"`
}

// OutputSettings carries the encoder defaults stored alongside segments.
type OutputSettings struct {
	Resolution   string `json:"resolution,omitempty"`
	FPS          int    `json:"fps,omitempty"`
	VideoBitrate string `json:"videoBitrate,omitempty"`
	AudioBitrate string `json:"audioBitrate,omitempty"`
}

// ParseTimeline decodes a persisted timeline document.
func ParseTimeline(raw string) (*Timeline, error) {
	var t Timeline
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, fmt.Errorf("invalid timeline definition: %w", err)
	}
	return &t, nil
}

// OrderedSegments returns the segments sorted by ascending order value.
// Ties keep their original relative position.
func (t *Timeline) OrderedSegments() []Segment {
	segments := make([]Segment, len(t.Segments))
	copy(segments, t.Segments)
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Order < segments[j].Order
	})
	return segments
}
