// Package watch re-runs layout synchronization when watched pages change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/layoutsync/internal/checksum"
	"github.com/starford/layoutsync/internal/models"
	"github.com/starford/layoutsync/internal/region"
	"github.com/starford/layoutsync/internal/storage"
)

// Runner performs one synchronization pass.
type Runner interface {
	Sync() (*models.Report, error)
}

// EventCallback is called after each watcher-driven run.
// kind is one of "updated" or "failed".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the directories holding files (paths
// relative to the store root, template first) and runs runner whenever one
// of them changes.
// Bursts of events are collapsed into one run after debounce. A run is
// skipped when the content of every file matches the state left by the
// previous run, so the watcher's own writes do not loop.
//
// Sync errors are logged and reported through cb; Watch only returns when
// ctx is cancelled or the watcher cannot be set up.
func Watch(ctx context.Context, runner Runner, store storage.Provider, files []string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	if len(files) == 0 {
		return fmt.Errorf("watch: no files")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]string, len(files))
	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := store.Resolve(f)
		if err != nil {
			return err
		}
		watched[abs] = f
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	logger.Info("watcher: started", slog.Int("files", len(files)), slog.Int("dirs", len(dirs)))

	last := snapshot(store, files)

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			current := snapshot(store, files)
			if maps.Equal(current, last) {
				logger.Debug("watcher: no content change")
				continue
			}
			report, syncErr := runner.Sync()
			if report != nil {
				for _, p := range report.Changed() {
					logger.Info("watcher: updated", slog.String("path", p))
					if cb != nil {
						cb("updated", p)
					}
				}
			}
			if syncErr != nil {
				logger.Error("watcher: sync failed", slog.String("error", syncErr.Error()))
				if cb != nil {
					cb("failed", failedDocument(syncErr, files[0]))
				}
			}
			// Includes the run's own writes, so they do not trigger another pass.
			last = snapshot(store, files)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			rel, ok := watched[filepath.Clean(ev.Name)]
			if !ok {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// snapshot maps each file to the checksum of its content. Unreadable files
// map to the empty string.
func snapshot(store storage.Provider, files []string) map[string]string {
	out := make(map[string]string, len(files))
	for _, f := range files {
		data, err := store.Read(f)
		if err != nil {
			out[f] = ""
			continue
		}
		out[f] = checksum.Sum(data)
	}
	return out
}

// failedDocument names the document a sync error is about, falling back to
// the template for errors that carry no document (I/O failures).
func failedDocument(err error, template string) string {
	var missing *region.MissingRegionError
	if errors.As(err, &missing) {
		return missing.Document
	}
	var dup *region.DuplicateRegionError
	if errors.As(err, &dup) {
		return dup.Document
	}
	return template
}
