package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/quill/pkg/core"
)

// Watch streams changes to documents matching pattern (default "**/*.md").
// The watcher runs under a supervisor that restarts it on failure. The
// returned channel is closed after ctx is done and the watcher stopped.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}
	if info, err := os.Stat(r.Path); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", r.Path)
	}

	events := make(chan core.Event, r.config.EventBuffer)

	spec := supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return newWatchWorker(r, pattern, events), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			ResetDuration:   30 * time.Second,
			MaxRestarts:     5,
			MaxDuration:     time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("quill-watch", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := sup.Stop(stopCtx)
		close(events)
		return err
	}, lifecycle.WithErrorHandler(r.reportError))

	return events, nil
}

func (r *Repository) reportError(err error) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
		return
	}
	r.config.Logger.Error("watcher error", "error", err)
}

// recursiveAdd registers the root and every directory below it, except
// .git and the system directory.
func (r *Repository) recursiveAdd(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != r.Path && r.isSystemName(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// shouldIgnore filters events for system files, temporary writes and paths
// outside pattern.
func (r *Repository) shouldIgnore(event fsnotify.Event, pattern string) bool {
	rel, err := r.resolveID(event.Name)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(rel, "/") {
		if r.isSystemName(part) {
			return true
		}
	}
	base := filepath.Base(event.Name)
	if isTempFile(base) || base == r.config.SystemDir+".lock" {
		return true
	}
	ok, _ := doublestar.Match(pattern, rel)
	return !ok
}

func (r *Repository) mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	}
	return ""
}

// resolveID turns an absolute event path into a document ID.
func (r *Repository) resolveID(path string) (string, error) {
	rel, err := filepath.Rel(r.Path, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return filepath.ToSlash(rel), nil
}
