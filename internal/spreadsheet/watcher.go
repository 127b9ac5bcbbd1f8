package spreadsheet

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
	"k8s.io/utils/clock"
)

// DefaultSettleDelay is how long a dropped file must stay quiet before it is read
const DefaultSettleDelay = 2 * time.Second

var supportedExtensions = []string{".xlsx", ".xlsm", ".csv"}

// Watcher reconciles every export dropped into a directory
type Watcher struct {
	dir        string
	reconciler *Reconciler
	clock      clock.WithDelayedExecution
	settle     time.Duration

	mu      sync.Mutex
	pending map[string]clock.Timer
	// processing serializes reconciliations triggered by different files
	processing sync.Mutex
}

// NewWatcher creates a watcher for dir
func NewWatcher(dir string, reconciler *Reconciler, c clock.WithDelayedExecution) *Watcher {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Watcher{
		dir:        dir,
		reconciler: reconciler,
		clock:      c,
		settle:     DefaultSettleDelay,
		pending:    make(map[string]clock.Timer),
	}
}

// Run processes files already present in the directory, then watches it
// until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch spreadsheet directory %s: %w", w.dir, err)
	}
	slog.Info("Watching spreadsheet drop directory", "dir", w.dir)

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to list spreadsheet directory %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && supported(e.Name()) {
			w.schedule(ctx, filepath.Join(w.dir, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}
			if !supported(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			slog.Error("Spreadsheet watcher error", "error", err)
		}
	}
}

// schedule (re)starts the settle timer of path so that a file still being
// written is read once
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = w.clock.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if _, err := w.ProcessFile(ctx, path); err != nil {
			slog.Error("Failed to process spreadsheet", "path", path, "error", err)
		}
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// ProcessFile reads and reconciles one export
func (w *Watcher) ProcessFile(ctx context.Context, path string) (*Report, error) {
	w.processing.Lock()
	defer w.processing.Unlock()

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the watched directory
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	sheet, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	return w.reconciler.Reconcile(ctx, sheet, "drop:"+filepath.Base(path))
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range supportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}
