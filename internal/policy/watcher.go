package policy

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads an engine when its policy file changes on disk.
type Watcher struct {
	path     string
	engine   Engine
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(error)
}

// NewWatcher starts watching the directory containing path. Editors often
// replace files instead of writing them in place, so the parent directory
// is watched rather than the file.
func NewWatcher(path string, engine Engine, logger *slog.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving policy path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(absPath)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watching policy directory: %w", err)
	}

	return &Watcher{
		path:     absPath,
		engine:   engine,
		logger:   logger,
		watcher:  fw,
		debounce: defaultDebounce,
	}, nil
}

// OnReload registers a callback invoked after every reload attempt.
func (w *Watcher) OnReload(fn func(error)) {
	w.onReload = fn
}

// Run processes file events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			err := w.engine.Reload(ctx)
			if err != nil {
				w.logger.Error("reloading response policy", "path", w.path, "error", err)
			} else {
				w.logger.Info("response policy reloaded", "path", w.path)
			}
			if w.onReload != nil {
				w.onReload(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("policy watcher error", "error", err)
		}
	}
}
