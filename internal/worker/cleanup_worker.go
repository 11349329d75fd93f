package worker

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// CleanupWorker removes stale intermediate files from the temp directory.
// Renders register their temp paths up-front, so anything old enough to
// exceed the retention window is an orphan from a crashed process.
type CleanupWorker struct {
	tempDir   string
	retention time.Duration
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(tempDir string, retention time.Duration) *CleanupWorker {
	return &CleanupWorker{tempDir: tempDir, retention: retention}
}

// ProcessTask deletes temp media files older than the retention window.
// Individual delete failures are logged and skipped; the sweep never fails
// the task.
func (w *CleanupWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	entries, err := os.ReadDir(w.tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		log.Printf("Temp cleanup: failed to read %s: %v", w.tempDir, err)
		return nil
	}

	cutoff := time.Now().Add(-w.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".mp4" && ext != ".png" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(w.tempDir, name)
		if err := os.Remove(path); err != nil {
			log.Printf("Temp cleanup: failed to remove %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Printf("Temp cleanup: removed %d stale files from %s", removed, w.tempDir)
	}
	return nil
}
