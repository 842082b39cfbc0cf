package platform_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/internal/platform"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/git"
	"github.com/aretw0/quill/pkg/settings"
)

// blogServer answers newPost with a fixed ID and every other call with true.
type blogServer struct {
	*httptest.Server
	mu    sync.Mutex
	calls []string
}

func newBlogServer(t *testing.T) *blogServer {
	t.Helper()
	b := &blogServer{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.calls = append(b.calls, string(body))
		b.mu.Unlock()

		value := `<boolean>1</boolean>`
		switch {
		case strings.Contains(string(body), "<methodName>metaWeblog.newPost</methodName>"):
			value = `<int>7</int>`
		case strings.Contains(string(body), "<methodName>system.listMethods</methodName>"):
			value = `<array><data><value><string>metaWeblog.newPost</string></value></data></array>`
		}
		io.WriteString(w, `<?xml version="1.0"?><methodResponse><params><param><value>`+value+`</value></param></params></methodResponse>`)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *blogServer) recorded() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func blogSettings(endpoint string) settings.Settings {
	s := settings.Default()
	s.Endpoint = endpoint
	s.Username = "admin"
	s.Password = "secret"
	return s
}

var clock = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 15, 0, time.Local) }

func TestService_PublishThenUpdate(t *testing.T) {
	blog := newBlogServer(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.md"),
		[]byte("---\ntitle: Hello\ncategories: [Notes]\nlayout: post\n---\n# Hello\n"), 0644))

	svc, err := platform.New(root,
		platform.WithSettings(blogSettings(blog.URL)),
		platform.WithClock(clock),
		platform.WithLogger(discard()),
	)
	require.NoError(t, err)

	ctx := context.Background()
	res, err := svc.Publish(ctx, "hello", core.PublishRequest{})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "7", res.RemoteID)

	data, err := os.ReadFile(filepath.Join(root, "hello.md"))
	require.NoError(t, err)
	assert.Equal(t, "---\n"+
		"title: Hello\n"+
		"categories:\n  - Notes\n"+
		"layout: post\n"+
		"tags:\n"+
		"draft: false\n"+
		"dateCreated: \"20240501T10:30:15\"\n"+
		"cid: 7\n"+
		"slug: 7\n"+
		"---\n\n# Hello\n", string(data))

	res, err = svc.Publish(ctx, "hello", core.PublishRequest{})
	require.NoError(t, err)
	assert.False(t, res.Created)

	calls := blog.recorded()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "<methodName>metaWeblog.newPost</methodName>")
	assert.Contains(t, calls[1], "<methodName>metaWeblog.editPost</methodName>")
	assert.Contains(t, calls[1], "<param><value><string>7</string></value></param>")
}

func TestService_Unconfigured(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("body\n"), 0644))

	svc, err := platform.New(root, platform.WithLogger(discard()))
	require.NoError(t, err)

	ctx := context.Background()
	docs, err := svc.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	_, err = svc.Publish(ctx, "a", core.PublishRequest{})
	assert.ErrorIs(t, err, core.ErrNotConfigured)
	_, err = svc.Ping(ctx)
	assert.ErrorIs(t, err, core.ErrNotConfigured)

	state := svc.State().(core.ServiceState)
	assert.Equal(t, "repository", state.RepositoryType)
	assert.Equal(t, "none", state.PublisherType)
}

func TestService_Ping(t *testing.T) {
	blog := newBlogServer(t)
	svc, err := platform.New(t.TempDir(), platform.WithSettings(blogSettings(blog.URL)), platform.WithLogger(discard()))
	require.NoError(t, err)

	methods, err := svc.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"metaWeblog.newPost"}, methods)
	assert.Equal(t, "metaweblog", svc.State().(core.ServiceState).PublisherType)
}

func TestService_SettingsDates(t *testing.T) {
	blog := newBlogServer(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "d.md"),
		[]byte("---\ncategories: [Notes]\ndateCreated: 2022-03-04 05:06\n---\nx\n"), 0644))

	s := blogSettings(blog.URL)
	s.UseCurrentTime = false
	s.PublishTimeOffset = 2

	svc, err := platform.New(root, platform.WithSettings(s), platform.WithClock(clock), platform.WithLogger(discard()))
	require.NoError(t, err)

	res, err := svc.Publish(context.Background(), "d", core.PublishRequest{})
	require.NoError(t, err)
	assert.Equal(t, "20220304T07:06:00", res.Document.Metadata.GetString(core.KeyDateCreated))
}

func TestService_PublishCommits(t *testing.T) {
	if !git.IsInstalled() {
		t.Skip("git not installed")
	}
	blog := newBlogServer(t)
	root := filepath.Join(t.TempDir(), "posts")

	svc, err := platform.New(root,
		platform.WithSettings(blogSettings(blog.URL)),
		platform.WithVersioning(true),
		platform.WithClock(clock),
		platform.WithLogger(discard()),
	)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "post.md"),
		[]byte("---\ncategories: [Notes]\n---\nbody\n"), 0644))

	_, err = svc.Publish(context.Background(), "post", core.PublishRequest{})
	require.NoError(t, err)

	msg, err := git.NewClient(root, "", nil).LastMessage()
	require.NoError(t, err)
	assert.Equal(t, "update post", msg)
}
