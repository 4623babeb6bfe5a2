// Package watcher triggers snapshot refreshes when source files change on disk.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when none is configured
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a set of files and calls onChange once per burst of writes.
// A burst touching several files produces a single call.
type Watcher struct {
	paths    []string
	onChange func(changed []string)
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a new file watcher
func New(paths []string, onChange func(changed []string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		paths:    paths,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Watch starts watching the files for changes.
// It blocks until the context is cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	if len(w.paths) == 0 {
		return errors.New("watcher: no paths to watch")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// Watch parent directories so files replaced by rename are still seen
	watchedDirs := make(map[string]bool)
	fileSet := make(map[string]bool)
	for _, path := range w.paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		dir := filepath.Dir(absPath)
		if !watchedDirs[dir] {
			if err := fw.Add(dir); err != nil {
				return err
			}
			watchedDirs[dir] = true
		}
		fileSet[absPath] = true
		w.logger.Info("watching for changes", "path", absPath)
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]bool)
		timer   *time.Timer
	)

	fire := func() {
		mu.Lock()
		changed := make([]string, 0, len(pending))
		for _, p := range w.paths {
			abs, _ := filepath.Abs(p)
			if pending[abs] {
				changed = append(changed, abs)
			}
		}
		pending = make(map[string]bool)
		mu.Unlock()

		if len(changed) == 0 || ctx.Err() != nil {
			return
		}
		w.logger.Info("source files changed", "paths", changed)
		w.onChange(changed)
	}

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil || !fileSet[absPath] {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			mu.Lock()
			pending[absPath] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, fire)
			mu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-ctx.Done():
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
			return ctx.Err()
		}
	}
}
