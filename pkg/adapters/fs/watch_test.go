package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/pkg/adapters/fs"
	"github.com/aretw0/quill/pkg/core"
)

func waitEvent(t *testing.T, events <-chan core.Event, id string) core.Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "events channel closed early")
			if e.ID == id {
				return e
			}
		case <-deadline:
			t.Fatalf("timeout waiting for event on %s", id)
			return core.Event{}
		}
	}
}

func TestWatch(t *testing.T) {
	repo, path, _ := setupRepo(t, func(c *fs.Config) {
		c.Debounce = 20 * time.Millisecond
		c.EventBuffer = 16
	})
	require.NoError(t, repo.Initialize(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return repo.State().(fs.RepositoryState).WatcherActive
	}, 2*time.Second, 10*time.Millisecond)

	t.Run("Reports Saved Documents", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, doc("hello.md", "hi", "title", "Hello")))
		e := waitEvent(t, events, "hello.md")
		assert.NotEqual(t, core.EventDelete, e.Type)
	})

	t.Run("Watches New Directories", func(t *testing.T) {
		dir := filepath.Join(path, "2024")
		require.NoError(t, os.Mkdir(dir, 0755))
		// Give the watcher a moment to register the directory.
		time.Sleep(100 * time.Millisecond)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "new.md"), []byte("x"), 0644))
		waitEvent(t, events, "2024/new.md")
	})

	t.Run("Reports Removal", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(path, "hello.md")))
		e := waitEvent(t, events, "hello.md")
		assert.Equal(t, core.EventDelete, e.Type)
	})

	t.Run("Closes Channel on Cancel", func(t *testing.T) {
		cancel()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case _, ok := <-events:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("events channel not closed after cancel")
			}
		}
	})
}

func TestWatch_IgnoresNonMatchingFiles(t *testing.T) {
	repo, path, _ := setupRepo(t, func(c *fs.Config) {
		c.Debounce = 20 * time.Millisecond
		c.EventBuffer = 16
	})
	require.NoError(t, repo.Initialize(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := repo.Watch(ctx, "**/*.md")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return repo.State().(fs.RepositoryState).WatcherActive
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(path, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(path, ".quill"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(path, ".quill", "index.json"), []byte("{}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(path, "post.md"), []byte("x"), 0644))

	e := waitEvent(t, events, "post.md")
	assert.Equal(t, "post.md", e.ID)

	select {
	case extra := <-events:
		t.Fatalf("unexpected event %s", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatch_InvalidPattern(t *testing.T) {
	repo, _, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(context.Background()))

	_, err := repo.Watch(context.Background(), "[")
	assert.Error(t, err)
}
