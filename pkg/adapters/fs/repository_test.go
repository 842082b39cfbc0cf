package fs_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/pkg/adapters/fs"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/git"
)

func TestMain(m *testing.M) {
	// Initialize commits .gitignore before a test can configure a user.
	for k, v := range map[string]string{
		"GIT_AUTHOR_NAME":     "Test",
		"GIT_AUTHOR_EMAIL":    "test@example.com",
		"GIT_COMMITTER_NAME":  "Test",
		"GIT_COMMITTER_EMAIL": "test@example.com",
	} {
		os.Setenv(k, v)
	}
	os.Exit(m.Run())
}

// setupRepo helps create a repository for testing.
// It returns the repository, the root path, and a git client for verification.
func setupRepo(t *testing.T, opts ...func(*fs.Config)) (*fs.Repository, string, *git.Client) {
	t.Helper()

	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "posts")

	cfg := fs.Config{
		Path:   root,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return fs.NewRepository(cfg), root, git.NewClient(root, "", nil)
}

func versioned(c *fs.Config) {
	c.Versioning = true
	c.AutoInit = true
}

func configureGitUser(t *testing.T, client *git.Client) {
	t.Helper()
	_, err := client.Run("config", "user.email", "test@example.com")
	require.NoError(t, err)
	_, err = client.Run("config", "user.name", "Test")
	require.NoError(t, err)
}

func doc(id, content string, pairs ...any) core.Document {
	meta := core.NewMetadata()
	for i := 0; i+1 < len(pairs); i += 2 {
		meta.Set(pairs[i].(string), pairs[i+1])
	}
	return core.Document{ID: id, Metadata: meta, Content: content}
}

func TestInitialize(t *testing.T) {
	t.Run("Creates Directory if Missing", func(t *testing.T) {
		repo, path, _ := setupRepo(t)

		require.NoError(t, repo.Initialize(context.Background()))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("Fails if MustExist and Missing", func(t *testing.T) {
		repo, _, _ := setupRepo(t, func(c *fs.Config) {
			c.MustExist = true
		})

		assert.Error(t, repo.Initialize(context.Background()))
	})

	t.Run("Inits Git Repo when Versioning", func(t *testing.T) {
		if !fs.IsGitInstalled() {
			t.Skip("git not installed")
		}
		repo, path, client := setupRepo(t, versioned)

		require.NoError(t, repo.Initialize(context.Background()))
		assert.True(t, client.IsRepo())

		ignore, err := os.ReadFile(filepath.Join(path, ".gitignore"))
		require.NoError(t, err)
		assert.Contains(t, string(ignore), ".quill/\n")
		assert.Contains(t, string(ignore), ".quill.lock\n")
	})
}

func TestSave(t *testing.T) {
	t.Run("Saves Content Without Header", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(context.Background()))

		require.NoError(t, repo.Save(context.Background(), doc("plain", "Hello World")))

		content, err := os.ReadFile(filepath.Join(path, "plain.md"))
		require.NoError(t, err)
		assert.Equal(t, "Hello World", string(content))
	})

	t.Run("Writes Frontmatter Header", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(context.Background()))

		d := doc("drafts/hello.md", "Body\n",
			"title", "Hello World",
			"tags", []string{"a", "b"},
			"draft", false,
		)
		require.NoError(t, repo.Save(context.Background(), d))

		content, err := os.ReadFile(filepath.Join(path, "drafts", "hello.md"))
		require.NoError(t, err)
		assert.Equal(t, "---\ntitle: \"Hello World\"\ntags:\n  - a\n  - b\ndraft: false\n---\n\nBody\n", string(content))
	})

	t.Run("Keeps File Mode", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(context.Background()))
		file := filepath.Join(path, "private.md")
		require.NoError(t, os.WriteFile(file, []byte("old"), 0600))

		require.NoError(t, repo.Save(context.Background(), doc("private.md", "new")))

		info, err := os.Stat(file)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("Skips Unchanged Document", func(t *testing.T) {
		repo, path, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(context.Background()))

		d := doc("same.md", "x", "title", "T")
		require.NoError(t, repo.Save(context.Background(), d))

		file := filepath.Join(path, "same.md")
		old := time.Now().Add(-time.Hour).Truncate(time.Second)
		require.NoError(t, os.Chtimes(file, old, old))

		require.NoError(t, repo.Save(context.Background(), d))

		info, err := os.Stat(file)
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(old), "file was rewritten")

		state := repo.State().(fs.RepositoryState)
		assert.Equal(t, 1, state.Saves)
		assert.Equal(t, 1, state.SkippedSaves)
	})

	t.Run("Rejects Paths Outside Root", func(t *testing.T) {
		repo, _, _ := setupRepo(t)
		require.NoError(t, repo.Initialize(context.Background()))

		err := repo.Save(context.Background(), doc("../escape.md", "x"))
		assert.ErrorIs(t, err, fs.ErrOutsideRoot)

		err = repo.Save(context.Background(), doc("", "x"))
		assert.ErrorIs(t, err, core.ErrEmptyID)
	})

	t.Run("Commits to Git when Versioning", func(t *testing.T) {
		if !fs.IsGitInstalled() {
			t.Skip("git not installed")
		}
		repo, _, client := setupRepo(t, versioned)
		require.NoError(t, repo.Initialize(context.Background()))
		require.True(t, client.IsRepo())
		configureGitUser(t, client)

		require.NoError(t, repo.Save(context.Background(), doc("git-note.md", "git content")))
		msg, err := client.LastMessage()
		require.NoError(t, err)
		assert.Equal(t, "update git-note.md", msg)

		ctx := context.WithValue(context.Background(), core.ChangeReasonKey, "publish git-note.md as 12")
		require.NoError(t, repo.Save(ctx, doc("git-note.md", "changed")))
		msg, err = client.LastMessage()
		require.NoError(t, err)
		assert.Equal(t, "publish git-note.md as 12", msg)
	})
}

func TestSave_ConcurrentVersioned(t *testing.T) {
	if !fs.IsGitInstalled() {
		t.Skip("git not installed")
	}
	repo, _, client := setupRepo(t, versioned)
	require.NoError(t, repo.Initialize(context.Background()))
	require.True(t, client.IsRepo())
	configureGitUser(t, client)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := filepath.Join("batch", string(rune('a'+i))+".md")
			errs <- repo.Save(context.Background(), doc(id, "content"))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	count, err := client.Run("rev-list", "--count", "HEAD")
	require.NoError(t, err)
	// One commit for .gitignore, then one per save.
	assert.Equal(t, "6", count)
}

func TestGet(t *testing.T) {
	repo, path, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(context.Background()))

	text := "---\ntitle: Hello\ncategories: [Go, Blog]\n---\n\nread me"
	require.NoError(t, os.WriteFile(filepath.Join(path, "readable.md"), []byte(text), 0644))

	t.Run("Retrieves Existing Document", func(t *testing.T) {
		d, err := repo.Get(context.Background(), "readable.md")
		require.NoError(t, err)
		assert.Equal(t, "readable.md", d.ID)
		assert.Equal(t, "read me", d.Content)
		assert.Equal(t, "Hello", d.Metadata.GetString("title"))
		assert.Equal(t, []string{"Go", "Blog"}, d.Metadata.GetStrings("categories"))
	})

	t.Run("Defaults to Markdown Extension", func(t *testing.T) {
		d, err := repo.Get(context.Background(), "readable")
		require.NoError(t, err)
		assert.Equal(t, "readable", d.ID)
		assert.Equal(t, "read me", d.Content)
	})

	t.Run("Returns Error for Non-Existent Document", func(t *testing.T) {
		_, err := repo.Get(context.Background(), "ghost")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Reads JSON Documents", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(path, "data.json"), []byte(`{"title":"J","content":"body"}`), 0644))
		d, err := repo.Get(context.Background(), "data.json")
		require.NoError(t, err)
		assert.Equal(t, "body", d.Content)
		assert.Equal(t, []string{"title"}, d.Metadata.Keys())
	})
}

func TestGetSave_PreservesHeader(t *testing.T) {
	repo, path, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(context.Background()))

	text := "---\nlayout: post\ntitle: Old\ncategories:\n  - Go\n---\n\nBody\n"
	file := filepath.Join(path, "post.md")
	require.NoError(t, os.WriteFile(file, []byte(text), 0644))

	d, err := repo.Get(context.Background(), "post.md")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), d))

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, text, string(content))

	d.Metadata.Set("title", "New")
	d.Metadata.Set("cid", "5")
	require.NoError(t, repo.Save(context.Background(), d))

	content, err = os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "---\nlayout: post\ntitle: New\ncategories:\n  - Go\ncid: 5\n---\n\nBody\n", string(content))
}

func TestList(t *testing.T) {
	repo, path, _ := setupRepo(t)
	require.NoError(t, repo.Initialize(context.Background()))
	ctx := context.Background()

	t.Run("Lists Empty Repo", func(t *testing.T) {
		docs, err := repo.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	require.NoError(t, repo.Save(ctx, doc("b.md", "c1", "title", "B")))
	require.NoError(t, repo.Save(ctx, doc("a.md", "c2", "title", "A")))
	require.NoError(t, repo.Save(ctx, doc("nested/deep/c.md", "c3", "title", "C")))
	require.NoError(t, os.WriteFile(filepath.Join(path, "notes.txt"), []byte("skip"), 0644))

	t.Run("Lists Matching Documents Sorted", func(t *testing.T) {
		docs, err := repo.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "a.md", docs[0].ID)
		assert.Equal(t, "b.md", docs[1].ID)
		assert.Equal(t, "nested/deep/c.md", docs[2].ID)
		assert.Equal(t, "A", docs[0].Metadata.GetString("title"))
		assert.Empty(t, docs[0].Content, "listing carries metadata only")
	})

	t.Run("Filters by Pattern", func(t *testing.T) {
		docs, err := repo.List(ctx, "nested/**/*.md")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "C", docs[0].Metadata.GetString("title"))
	})

	t.Run("Uses Cache on Second Call", func(t *testing.T) {
		first, err := repo.List(ctx, "")
		require.NoError(t, err)

		_, err = os.Stat(filepath.Join(path, ".quill", "index.json"))
		require.NoError(t, err, "index should be written")

		second, err := repo.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, len(first), len(second))
		assert.Equal(t, first[2].Metadata.Keys(), second[2].Metadata.Keys())

		state := repo.State().(fs.RepositoryState)
		assert.Equal(t, 3, state.CacheSize)
	})

	t.Run("Refreshes Changed Files", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, doc("a.md", "c2", "title", "A2")))
		later := time.Now().Add(time.Minute)
		require.NoError(t, os.Chtimes(filepath.Join(path, "a.md"), later, later))

		docs, err := repo.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "A2", docs[0].Metadata.GetString("title"))
	})

	t.Run("Rejects Invalid Pattern", func(t *testing.T) {
		_, err := repo.List(ctx, "[")
		assert.Error(t, err)
	})
}
