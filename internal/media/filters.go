package media

import (
	"fmt"
	"strings"

	"github.com/clipforge/api/internal/model"
)

// Overlay defaults matching the platform presets' creative style.
const (
	defaultOverlayFontSize  = 48
	defaultOverlayFontColor = "white"
	defaultOverlayBoxColor  = "black"
	defaultOverlayBoxAlpha  = 0.5
	overlayBoxBorder        = 5
)

// EscapeDrawtext escapes the characters ffmpeg's drawtext filter treats
// specially: backslash, single quote, colon and percent.
func EscapeDrawtext(text string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `'\''`,
		`:`, `\:`,
		`%`, `\%`,
	)
	return r.Replace(text)
}

// overlayPositionExpr maps an anchor to drawtext x/y expressions. Unknown
// anchors fall back to bottom-center.
func overlayPositionExpr(pos model.OverlayPosition) (x, y string) {
	switch pos {
	case model.OverlayTopLeft:
		return "50", "50"
	case model.OverlayTopCenter:
		return "(w-text_w)/2", "50"
	case model.OverlayTopRight:
		return "w-text_w-50", "50"
	case model.OverlayCenter:
		return "(w-text_w)/2", "(h-text_h)/2"
	case model.OverlayBottomLeft:
		return "50", "h-150"
	case model.OverlayBottomRight:
		return "w-text_w-50", "h-150"
	default: // bottom-center
		return "(w-text_w)/2", "h-150"
	}
}

// overlayFilter builds the drawtext filter for a burned-in overlay.
func overlayFilter(spec OverlaySpec) string {
	fontSize := defaultOverlayFontSize
	fontColor := defaultOverlayFontColor
	boxColor := defaultOverlayBoxColor
	boxAlpha := defaultOverlayBoxAlpha
	if s := spec.Style; s != nil {
		if s.FontSize > 0 {
			fontSize = s.FontSize
		}
		if s.FontColor != "" {
			fontColor = normalizeColor(s.FontColor)
		}
		if s.BackgroundColor != "" {
			boxColor = normalizeColor(s.BackgroundColor)
		}
		if s.BackgroundOpacity > 0 {
			boxAlpha = s.BackgroundOpacity
		}
	}

	x, y := overlayPositionExpr(spec.Position)
	return fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=%s:x=%s:y=%s:box=1:boxcolor=%s@%.2g:boxborderw=%d",
		EscapeDrawtext(spec.Text), fontSize, fontColor, x, y, boxColor, boxAlpha, overlayBoxBorder)
}

// textSlideFilter builds one drawtext per line, horizontally centered with
// the block vertically centered. Line height is 1.2x the font size.
func textSlideFilter(lines []string, fontSize, height int) string {
	if len(lines) == 0 {
		return ""
	}
	lineHeight := float64(fontSize) * 1.2
	totalHeight := lineHeight * float64(len(lines))
	top := (float64(height) - totalHeight) / 2

	filters := make([]string, 0, len(lines))
	for i, line := range lines {
		y := top + float64(i)*lineHeight
		filters = append(filters,
			fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=white:x=(w-text_w)/2:y=%d",
				EscapeDrawtext(line), fontSize, int(y)))
	}
	return strings.Join(filters, ",")
}

// letterboxFilter scales preserving aspect ratio and pads to the target
// resolution on a black canvas.
func letterboxFilter(width, height int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black",
		width, height, width, height)
}

// concatListFile renders the concat demuxer's list format. Single quotes in
// paths are escaped the way the demuxer expects.
func concatListFile(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, `'`, `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// normalizeColor converts CSS-style "#RRGGBB" values into the 0xRRGGBB form
// ffmpeg expects; named colors pass through. Empty means black.
func normalizeColor(c string) string {
	if c == "" {
		return "black"
	}
	if strings.HasPrefix(c, "#") {
		return "0x" + strings.TrimPrefix(c, "#")
	}
	return c
}
