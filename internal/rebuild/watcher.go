package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mpalmer/static-builder/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher turns notices into fsnotify watches and coalesces change events
// into rebuild signals.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	signal   chan struct{}
	logger   *slog.Logger

	mu      sync.Mutex
	watched map[string]struct{}
	timer   *time.Timer
}

// NewWatcher creates a Watcher. A zero debounce uses DefaultDebounce.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		fs:       fw,
		debounce: debounce,
		signal:   make(chan struct{}, 1),
		logger:   slog.Default(),
		watched:  make(map[string]struct{}),
	}, nil
}

// WithLogger sets the logger for watch failures and change events.
func (w *Watcher) WithLogger(l *slog.Logger) *Watcher {
	if l != nil {
		w.logger = l
	}
	return w
}

// RebuildIfChanged watches path. Files are watched through their directory.
func (w *Watcher) RebuildIfChanged(path string) {
	dir := path
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		dir = filepath.Dir(path)
	}
	w.add(dir)
}

func (w *Watcher) add(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.watched[dir]; ok {
		return
	}
	if err := w.fs.Add(dir); err != nil {
		w.logger.Warn("Watch add failed", logfields.Path(dir), logfields.Error(err))
		return
	}
	w.watched[dir] = struct{}{}
}

// Watched returns the number of watched directories.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// Rebuilds delivers one signal per settled burst of changes.
func (w *Watcher) Rebuilds() <-chan struct{} { return w.signal }

// Run consumes filesystem events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.add(ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.signal <- struct{}{}:
		default:
		}
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

// shouldIgnoreEvent returns true for hidden files and editor scratch files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")
}
