package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sdejongh/webpnorris/pkg/logging"
	"github.com/sdejongh/webpnorris/pkg/models"
	"github.com/sdejongh/webpnorris/pkg/storage"
)

// DefaultDebounce is how long a source must stay quiet before conversion
const DefaultDebounce = 500 * time.Millisecond

// WatchBackend is a storage backend that can also evaluate exclude rules
type WatchBackend interface {
	storage.Backend
	Excluded(path string, isDir bool) bool
}

// Watcher converts source images as they are created or rewritten
type Watcher struct {
	backend   WatchBackend
	converter *Converter
	logger    logging.Logger
	debounce  time.Duration
	sources   map[string]bool

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher that feeds changed sources to converter
func NewWatcher(backend WatchBackend, converter *Converter, logger logging.Logger, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		backend:   backend,
		converter: converter,
		logger:    logging.OrNull(logger),
		debounce:  debounce,
		sources:   models.ExtensionSet(models.SourceExtensions),
		pending:   make(map[string]*time.Timer),
	}
}

// Run watches every directory under the root until ctx is cancelled.
// Each conversion outcome is passed to onOutcome, which may be nil.
// Cancellation is the normal way to stop and returns nil.
func (w *Watcher) Run(ctx context.Context, onOutcome func(models.ConversionOutcome)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	dirs, err := w.backend.Dirs(ctx)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", dir, err)
		}
	}
	w.logger.Info(ctx, "watching for new images", logging.Fields{"root": w.backend.Root(), "dirs": len(dirs)})

	// done releases timer callbacks still waiting on ready once Run returns
	ready := make(chan string, 64)
	done := make(chan struct{})
	defer close(done)
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, event, ready, done)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(ctx, "watcher error", err, nil)

		case path := <-ready:
			w.convert(ctx, path, onOutcome)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event, ready chan<- string, done <-chan struct{}) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(ctx, fsw, event.Name, ready, done)
			return
		}
	}

	w.schedule(ctx, event.Name, ready, done)
}

// addTree watches a newly created directory and everything below it, and
// schedules the sources already inside, since they may have been written
// before the watch was in place.
func (w *Watcher) addTree(ctx context.Context, fsw *fsnotify.Watcher, root string, ready chan<- string, done <-chan struct{}) {
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if w.backend.Excluded(dir, true) {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn(ctx, "cannot watch new folder", logging.Fields{"path": dir, "error": err.Error()})
			continue
		}
		w.logger.Debug(ctx, "watching new folder", logging.Fields{"path": dir})

		entries, err := os.ReadDir(dir)
		if err != nil {
			w.logger.Warn(ctx, "cannot list new folder", logging.Fields{"path": dir, "error": err.Error()})
			continue
		}
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			if e.IsDir() {
				stack = append(stack, path)
			} else {
				w.schedule(ctx, path, ready, done)
			}
		}
	}
}

// schedule debounces path: it is sent to ready once no further event has
// arrived for the debounce interval. The send is dropped if ctx is
// cancelled or done is closed first.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string, done <-chan struct{}) {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || !models.MatchesExtension(name, w.sources) {
		return
	}
	if w.backend.Excluded(path, false) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		case <-done:
		}
	})
}

func (w *Watcher) convert(ctx context.Context, path string, onOutcome func(models.ConversionOutcome)) {
	// removed or renamed before the debounce expired
	if exists, err := w.backend.Exists(ctx, path); err != nil || !exists {
		return
	}

	outcome := w.converter.ConvertChecked(ctx, models.Classify(path))
	if outcome.OK() {
		w.logger.Info(ctx, "converted", logging.Fields{"path": path, "webp": outcome.WebPPath})
	}
	if onOutcome != nil {
		onOutcome(outcome)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
