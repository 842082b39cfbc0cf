package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/quill/pkg/core"
)

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.repo.recursiveAdd(watcher, w.repo.Path); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.repo.config.Debounce)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// processFilesystemEvent handles filtering, mapping, and debouncing of filesystem events.
// Returns true if event was processed, false if should be ignored.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) (processed bool) {
	logger := w.repo.config.Logger
	logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	// New directories are watched as they appear.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if id, err := w.repo.resolveID(event.Name); err == nil && !w.repo.isSystemName(info.Name()) {
				if err := w.repo.recursiveAdd(w.watcher, event.Name); err != nil {
					w.repo.reportError(fmt.Errorf("failed to watch new directory %s: %w", id, err))
				}
			}
			return false
		}
	}

	if w.repo.shouldIgnore(event, w.pattern) {
		return false
	}

	eType := w.repo.mapEventType(event)
	if eType == "" {
		return false
	}

	id, err := w.repo.resolveID(event.Name)
	if err != nil {
		logger.Debug("resolveID failed", "path", event.Name, "err", err)
		return false
	}

	w.sendEvent(ctx, core.Event{
		Type:      eType,
		ID:        id,
		Timestamp: time.Now().Unix(),
	})

	return true
}

// sendEvent enqueues an event via the debouncer, protecting against channel closure during shutdown.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			// Recover from panic if channel was closed (worker stopping)
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)

			// Stack traces only at debug level.
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// Stop accepting new events and wait for in-flight sends before the
	// Watch closes the events channel.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

// mainEventLoop is the core select loop that processes filesystem and watcher events.
func (w *watchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.repo.reportError(wErr)
		}
	}
}
