package schema

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is how long the watcher waits for a burst of file
// events to settle before reloading.
const DefaultDebounceInterval = 100 * time.Millisecond

// Watcher reloads a schema file into a Holder whenever the file changes.
// A reload that fails to parse or validate is logged and the previous
// registry stays in effect.
type Watcher struct {
	path     string
	holder   *Holder
	interval time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// BeforeSwap, when set, runs with a freshly loaded registry before it
	// replaces the current one. An error rejects the reload.
	BeforeSwap func(reg *Registry) error

	// OnReload, when set, is called after every reload attempt.
	OnReload func(reg *Registry, err error)
}

// NewWatcher creates a watcher for the schema file at path.
func NewWatcher(path string, holder *Holder, interval time.Duration) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		holder:   holder,
		interval: interval,
		logger:   slog.Default().With("component", "schema.watcher"),
		watcher:  fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks until ctx is cancelled or Stop is called.
//
// The containing directory is watched rather than the file itself so that
// editors which save by renaming a temporary file are still picked up.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer close(w.doneCh)

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	w.logger.Info("schema watcher started",
		"path", w.path,
		"debounce_ms", w.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("schema watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("schema watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("schema file event", "path", event.Name, "op", event.Op.String())
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("schema watcher error", "error", err)
		}
	}
}

// Stop ends Watch and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// Reload loads the schema file and swaps it into the holder.
func (w *Watcher) Reload() error {
	reg, err := Load(w.path)
	if err == nil && w.BeforeSwap != nil {
		if err = w.BeforeSwap(reg); err != nil {
			err = fmt.Errorf("schema rejected before swap: %w", err)
		}
	}
	if err == nil {
		w.holder.Swap(reg)
		w.logger.Info("schema reloaded", "path", w.path, "models", len(reg.models))
	} else {
		w.logger.Error("schema reload failed, keeping previous schema", "path", w.path, "error", err)
	}
	if w.OnReload != nil {
		w.OnReload(reg, err)
	}
	return err
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

// schedule debounces reloads: the timer restarts on every event.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.interval, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		_ = w.Reload()
	})
}
