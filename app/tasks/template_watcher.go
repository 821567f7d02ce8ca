package tasks

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultWatchDebounce = 500 * time.Millisecond

// TemplateWatcher calls onChange once a burst of edits to the page template
// has settled. The parent directory is watched so the template may be
// created, replaced by rename, or removed while the watcher runs.
type TemplateWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
}

func NewTemplateWatcher(path string, debounce time.Duration, onChange func()) (*TemplateWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &TemplateWatcher{
		watcher:  watcher,
		path:     abs,
		onChange: onChange,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start is a no-op when the watcher is already running or was stopped.
func (w *TemplateWatcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return
	}
	w.running = true

	slog.Info("Watching page template", "path", w.path)
	go w.run()
}

// Stop releases the watcher. It is safe to call more than once and without
// a prior Start.
func (w *TemplateWatcher) Stop() {
	w.once.Do(func() {
		w.mu.Lock()
		started := w.running
		w.stopped = true
		w.mu.Unlock()

		close(w.stopCh)
		if started {
			<-w.doneCh
		}
		if err := w.watcher.Close(); err != nil {
			slog.Warn("Failed to close template watcher", "error", err)
		}
	})
}

func (w *TemplateWatcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 5)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Template watcher error", "error", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *TemplateWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	slog.Debug("Template changed", "path", event.Name, "op", event.Op.String())

	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *TemplateWatcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	w.onChange()
}
