package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FFmpeg implements Backend by shelling out to ffmpeg/ffprobe.
type FFmpeg struct {
	binary      string
	probeBinary string
	tempDir     string
}

// NewFFmpeg creates a backend using the given binaries. Empty values fall
// back to ffmpeg/ffprobe on PATH and the OS temp dir.
func NewFFmpeg(binary, probeBinary, tempDir string) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if probeBinary == "" {
		probeBinary = "ffprobe"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &FFmpeg{binary: binary, probeBinary: probeBinary, tempDir: tempDir}
}

// Probe returns the container duration in seconds.
func (f *FFmpeg) Probe(ctx context.Context, path string) (float64, error) {
	out, err := f.run(ctx, f.probeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", filepath.Base(path), err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q", strings.TrimSpace(out))
	}
	return dur, nil
}

// Snapshot extracts one frame at the given offset, retrying at offset zero
// when a non-zero seek fails (short clips).
func (f *FFmpeg) Snapshot(ctx context.Context, path string, offsetSeconds float64, width, height int, outPath string) error {
	err := f.snapshotAt(ctx, path, offsetSeconds, width, height, outPath)
	if err != nil && offsetSeconds > 0 {
		return f.snapshotAt(ctx, path, 0, width, height, outPath)
	}
	return err
}

func (f *FFmpeg) snapshotAt(ctx context.Context, path string, offsetSeconds float64, width, height int, outPath string) error {
	_, err := f.run(ctx, f.binary,
		"-y",
		"-ss", formatSeconds(offsetSeconds),
		"-i", path,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		outPath,
	)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ImageToVideo loops a still image into a fixed-duration letterboxed clip.
func (f *FFmpeg) ImageToVideo(ctx context.Context, imagePath string, durationSeconds, width, height int, outPath string) error {
	_, err := f.run(ctx, f.binary,
		"-y",
		"-loop", "1",
		"-f", "image2",
		"-t", strconv.Itoa(durationSeconds),
		"-i", imagePath,
		"-vf", letterboxFilter(width, height),
		"-c:v", "libx264",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-r", "30",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("image to video %s: %w", filepath.Base(imagePath), err)
	}
	return nil
}

// TextSlide renders the lines over a solid color source.
func (f *FFmpeg) TextSlide(ctx context.Context, spec TextSlideSpec, outPath string) error {
	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=%s:s=%dx%d:d=%d:r=30",
			normalizeColor(spec.BackgroundColor), spec.Width, spec.Height, spec.DurationSeconds),
	}
	if filter := textSlideFilter(spec.Lines, spec.FontSize, spec.Height); filter != "" {
		args = append(args, "-vf", filter)
	}
	args = append(args,
		"-c:v", "libx264",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	if _, err := f.run(ctx, f.binary, args...); err != nil {
		return fmt.Errorf("text slide: %w", err)
	}
	return nil
}

// TextOverlay burns text into an existing clip, re-encoding it.
func (f *FFmpeg) TextOverlay(ctx context.Context, videoPath string, spec OverlaySpec, outPath string) error {
	_, err := f.run(ctx, f.binary,
		"-y",
		"-i", videoPath,
		"-vf", overlayFilter(spec),
		"-c:v", "libx264",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("text overlay %s: %w", filepath.Base(videoPath), err)
	}
	return nil
}

// Concat joins clips with the concat demuxer so already-encoded segments are
// read in order, then re-encodes once into the final profile.
func (f *FFmpeg) Concat(ctx context.Context, orderedPaths []string, outPath string) error {
	listPath := filepath.Join(f.tempDir, uuid.New().String()+".txt")
	if err := os.WriteFile(listPath, []byte(concatListFile(orderedPaths)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	_, err := f.run(ctx, f.binary,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		outPath,
	)
	if err != nil {
		return fmt.Errorf("concat %d clips: %w", len(orderedPaths), err)
	}
	return nil
}

func (f *FFmpeg) run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %v: %s", filepath.Base(name), err, lastLine(stderr.String()))
	}
	return stdout.String(), nil
}

// lastLine trims ffmpeg's verbose stderr down to the line that usually
// carries the actual error.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
