package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gopherai-pdfchat/internal/metrics"
	"gopherai-pdfchat/internal/storage"
)

// UploadDir is the part of the local store the sweeper walks.
type UploadDir interface {
	List() ([]storage.StoredFile, error)
	Remove(path string) error
}

// PathSource reports every backing file still owned by a live session.
type PathSource interface {
	ReferencedPaths(ctx context.Context) (map[string]struct{}, error)
}

// UploadSweeper deletes upload files no live session references. Files younger
// than the grace period are left alone so an in-flight upload is never raced.
type UploadSweeper struct {
	files    UploadDir
	sessions PathSource
	interval time.Duration
	grace    time.Duration
	logger   *zerolog.Logger
	now      func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewUploadSweeper(files UploadDir, sessions PathSource, interval, grace time.Duration, logger *zerolog.Logger) *UploadSweeper {
	return &UploadSweeper{
		files:    files,
		sessions: sessions,
		interval: interval,
		grace:    grace,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs SweepOnce every interval until Close. A non-positive interval
// disables the loop.
func (w *UploadSweeper) Start(ctx context.Context) error {
	if w.cancel != nil || w.interval <= 0 {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if _, err := w.SweepOnce(workerCtx); err != nil {
					w.logger.Warn().Err(err).Msg("upload sweep failed")
				}
			}
		}
	}()

	return nil
}

// SweepOnce deletes every orphaned file and returns how many were removed.
func (w *UploadSweeper) SweepOnce(ctx context.Context) (int, error) {
	referenced, err := w.sessions.ReferencedPaths(ctx)
	if err != nil {
		return 0, fmt.Errorf("collect referenced paths failed: %w", err)
	}
	files, err := w.files.List()
	if err != nil {
		return 0, fmt.Errorf("list upload dir failed: %w", err)
	}

	cutoff := w.now().Add(-w.grace)
	removed := 0
	for _, f := range files {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if isReferenced(referenced, f.Path) || f.ModTime.After(cutoff) {
			continue
		}
		err := w.files.Remove(f.Path)
		metrics.FileRemoved("sweep", err)
		if err != nil {
			w.logger.Warn().Err(err).Str("path", f.Path).Msg("delete orphaned upload failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		w.logger.Info().Int("removed", removed).Int("scanned", len(files)).Msg("orphaned uploads deleted")
	}
	return removed, nil
}

func (w *UploadSweeper) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func isReferenced(referenced map[string]struct{}, path string) bool {
	if _, ok := referenced[path]; ok {
		return true
	}
	_, ok := referenced[filepath.Clean(path)]
	return ok
}
