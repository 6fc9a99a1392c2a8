package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the bursts of events an atomic save produces.
const DefaultDebounce = 500 * time.Millisecond

// CorpusWatcher reloads the model when the corpus file changes.
type CorpusWatcher struct {
	path     string
	reloader Reloader
	debounce time.Duration
	logger   *zap.Logger
}

// NewCorpusWatcher returns a watcher for the corpus file at path.
func NewCorpusWatcher(path string, reloader Reloader, debounce time.Duration, logger *zap.Logger) *CorpusWatcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CorpusWatcher{path: path, reloader: reloader, debounce: debounce, logger: logger}
}

// Run watches until ctx is cancelled. It returns an error only if the watch
// cannot be set up.
func (w *CorpusWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", w.path, err)
	}

	// Watch the directory; the corpus file is replaced by rename on every save.
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.logger.Info("Watching corpus for changes", zap.String("path", absPath))

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.reload(ctx) })
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Corpus watcher error", zap.Error(err))
		}
	}
}

func (w *CorpusWatcher) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Info("Corpus changed, reloading model", zap.String("path", w.path))
	if err := w.reloader.Reload(ctx); err != nil {
		w.logger.Warn("Reload after corpus change failed", zap.Error(err))
	}
}
