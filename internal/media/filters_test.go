package media

import (
	"strings"
	"testing"

	"github.com/clipforge/api/internal/model"
)

func TestEscapeDrawtext(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"100% organic", `100\% organic`},
		{"note: read", `note\: read`},
		{`back\slash`, `back\\slash`},
		{"it's", `it'\''s`},
	}

	for _, tt := range tests {
		if got := EscapeDrawtext(tt.in); got != tt.want {
			t.Errorf("EscapeDrawtext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOverlayPositionExpr(t *testing.T) {
	tests := []struct {
		pos model.OverlayPosition
		x   string
		y   string
	}{
		{model.OverlayTopLeft, "50", "50"},
		{model.OverlayTopCenter, "(w-text_w)/2", "50"},
		{model.OverlayTopRight, "w-text_w-50", "50"},
		{model.OverlayCenter, "(w-text_w)/2", "(h-text_h)/2"},
		{model.OverlayBottomLeft, "50", "h-150"},
		{model.OverlayBottomCenter, "(w-text_w)/2", "h-150"},
		{model.OverlayBottomRight, "w-text_w-50", "h-150"},
		{"", "(w-text_w)/2", "h-150"},               // default anchor
		{"somewhere-odd", "(w-text_w)/2", "h-150"}, // unknown falls back
	}

	for _, tt := range tests {
		x, y := overlayPositionExpr(tt.pos)
		if x != tt.x || y != tt.y {
			t.Errorf("overlayPositionExpr(%q) = (%s, %s), want (%s, %s)", tt.pos, x, y, tt.x, tt.y)
		}
	}
}

func TestOverlayFilterDefaults(t *testing.T) {
	got := overlayFilter(OverlaySpec{Text: "Subscribe"})

	for _, want := range []string{
		"drawtext=text='Subscribe'",
		"fontsize=48",
		"fontcolor=white",
		"box=1",
		"boxcolor=black@0.5",
		"boxborderw=5",
		"x=(w-text_w)/2",
		"y=h-150",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("overlayFilter missing %q in %q", want, got)
		}
	}
}

func TestOverlayFilterStyleOverrides(t *testing.T) {
	got := overlayFilter(OverlaySpec{
		Text:     "Hi",
		Position: model.OverlayTopLeft,
		Style: &model.OverlayStyle{
			FontSize:          64,
			FontColor:         "#FF0000",
			BackgroundColor:   "#0000FF",
			BackgroundOpacity: 0.8,
		},
	})

	for _, want := range []string{
		"fontsize=64",
		"fontcolor=0xFF0000",
		"boxcolor=0x0000FF@0.8",
		"x=50",
		"y=50",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("overlayFilter missing %q in %q", want, got)
		}
	}
}

func TestTextSlideFilterCentersBlock(t *testing.T) {
	// Two lines at 72pt: line height 86.4, block 172.8, top of a 1920 canvas
	// at (1920-172.8)/2 = 873.6 -> 873, second line at 960.
	got := textSlideFilter([]string{"one", "two"}, 72, 1920)

	parts := strings.Split(got, ",")
	if len(parts) != 2 {
		t.Fatalf("got %d drawtext filters, want 2: %q", len(parts), got)
	}
	if !strings.Contains(parts[0], "y=873") {
		t.Errorf("first line placement wrong: %q", parts[0])
	}
	if !strings.Contains(parts[1], "y=960") {
		t.Errorf("second line placement wrong: %q", parts[1])
	}
	for _, p := range parts {
		if !strings.Contains(p, "x=(w-text_w)/2") {
			t.Errorf("line not centered: %q", p)
		}
	}
}

func TestTextSlideFilterEmpty(t *testing.T) {
	if got := textSlideFilter(nil, 72, 1920); got != "" {
		t.Errorf("empty lines produced filter %q", got)
	}
}

func TestLetterboxFilter(t *testing.T) {
	got := letterboxFilter(1080, 1920)
	want := "scale=1080:1920:force_original_aspect_ratio=decrease,pad=1080:1920:(ow-iw)/2:(oh-ih)/2:color=black"
	if got != want {
		t.Errorf("letterboxFilter = %q, want %q", got, want)
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "black"},
		{"#1A2B3C", "0x1A2B3C"},
		{"white", "white"},
	}
	for _, tt := range tests {
		if got := normalizeColor(tt.in); got != tt.want {
			t.Errorf("normalizeColor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConcatListFile(t *testing.T) {
	got := concatListFile([]string{"/tmp/a.mp4", "/tmp/it's.mp4"})
	want := "file '/tmp/a.mp4'\nfile '/tmp/it'\\''s.mp4'\n"
	if got != want {
		t.Errorf("concatListFile = %q, want %q", got, want)
	}
}
