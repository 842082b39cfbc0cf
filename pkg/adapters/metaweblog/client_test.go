package metaweblog

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/xmlrpc"
)

// fakeBlog answers every call with the given response and records the last request body.
type fakeBlog struct {
	*httptest.Server
	response string
	lastBody string
}

func newFakeBlog(t *testing.T, response string) *fakeBlog {
	t.Helper()
	fb := &fakeBlog{response: response}
	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		fb.lastBody = string(data)
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, fb.response)
	}))
	t.Cleanup(fb.Close)
	return fb
}

func respond(value string) string {
	return `<?xml version="1.0"?><methodResponse><params><param><value>` + value + `</value></param></params></methodResponse>`
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := New(Config{Endpoint: endpoint, Username: "admin", Password: "secret"})
	require.NoError(t, err)
	return c
}

var samplePost = core.Post{
	Title:       "Hello & Welcome",
	Body:        "# Hi\n",
	Slug:        "hello",
	Tags:        []string{"go", "xmlrpc"},
	Categories:  []string{"Dev", "Notes"},
	Draft:       false,
	DateCreated: time.Date(2024, 5, 1, 10, 30, 15, 0, time.Local),
}

func expectedStruct() *xmlrpc.Struct {
	return xmlrpc.NewStruct().
		Set("title", xmlrpc.String("Hello & Welcome")).
		Set("description", xmlrpc.String("# Hi\n")).
		Set("mt_keywords", xmlrpc.String("go,xmlrpc")).
		Set("categories", xmlrpc.Array{xmlrpc.String("Dev"), xmlrpc.String("Notes")}).
		Set("post_type", xmlrpc.String("post")).
		Set("wp_slug", xmlrpc.String("hello")).
		Set("mt_allow_comments", xmlrpc.Int(1)).
		Set("dateCreated", xmlrpc.DateTime{Raw: "20240501T10:30:15"})
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Endpoint: "https://blog.example/action/xmlrpc"})
	assert.ErrorIs(t, err, core.ErrNotConfigured)

	_, err = New(Config{Endpoint: "ftp://blog.example", Username: "u", Password: "p"})
	assert.Error(t, err)

	c, err := New(Config{Endpoint: "https://blog.example/action/xmlrpc", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBlogID, c.blogID)
	assert.Equal(t, "metaweblog", c.ComponentType())
}

func TestNewPost(t *testing.T) {
	t.Run("Int Result", func(t *testing.T) {
		blog := newFakeBlog(t, respond(`<int>57</int>`))
		c := newTestClient(t, blog.URL)

		id, err := c.NewPost(context.Background(), samplePost)
		require.NoError(t, err)
		assert.Equal(t, "57", id)

		want := xmlrpc.EncodeCall(MethodNewPost,
			xmlrpc.String("0"),
			xmlrpc.String("admin"),
			xmlrpc.String("secret"),
			expectedStruct(),
			xmlrpc.Bool(true),
		)
		assert.Equal(t, want, blog.lastBody)
	})

	t.Run("String Result", func(t *testing.T) {
		blog := newFakeBlog(t, respond(`<string>58</string>`))
		id, err := newTestClient(t, blog.URL).NewPost(context.Background(), samplePost)
		require.NoError(t, err)
		assert.Equal(t, "58", id)
	})

	t.Run("Draft Is Not Published", func(t *testing.T) {
		blog := newFakeBlog(t, respond(`<int>1</int>`))
		post := samplePost
		post.Draft = true
		_, err := newTestClient(t, blog.URL).NewPost(context.Background(), post)
		require.NoError(t, err)
		assert.Contains(t, blog.lastBody, `<param><value><boolean>0</boolean></value></param></params>`)
	})

	t.Run("Unexpected Result", func(t *testing.T) {
		blog := newFakeBlog(t, respond(`<struct></struct>`))
		_, err := newTestClient(t, blog.URL).NewPost(context.Background(), samplePost)
		assert.Error(t, err)
	})

	t.Run("Fault", func(t *testing.T) {
		blog := newFakeBlog(t, `<methodResponse><fault><value><struct>`+
			`<member><name>faultCode</name><value><int>403</int></value></member>`+
			`<member><name>faultString</name><value><string>bad login</string></value></member>`+
			`</struct></value></fault></methodResponse>`)
		_, err := newTestClient(t, blog.URL).NewPost(context.Background(), samplePost)
		f, ok := xmlrpc.IsFault(err)
		require.True(t, ok)
		assert.Equal(t, "bad login", f.Message)
	})
}

func TestEditPost(t *testing.T) {
	blog := newFakeBlog(t, respond(`<boolean>1</boolean>`))
	c := newTestClient(t, blog.URL)

	require.NoError(t, c.EditPost(context.Background(), "57", samplePost))

	want := xmlrpc.EncodeCall(MethodEditPost,
		xmlrpc.String("57"),
		xmlrpc.String("admin"),
		xmlrpc.String("secret"),
		expectedStruct(),
		xmlrpc.Bool(true),
	)
	assert.Equal(t, want, blog.lastBody)

	blog.response = respond(`<boolean>0</boolean>`)
	assert.Error(t, c.EditPost(context.Background(), "57", samplePost))
}

func TestListMethods(t *testing.T) {
	blog := newFakeBlog(t, respond(`<array><data>`+
		`<value><string>metaWeblog.newPost</string></value>`+
		`<value><string>metaWeblog.editPost</string></value>`+
		`</data></array>`))

	methods, err := newTestClient(t, blog.URL).ListMethods(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"metaWeblog.newPost", "metaWeblog.editPost"}, methods)
	assert.Equal(t, xmlrpc.EncodeCall(MethodListMethods), blog.lastBody)
}

func TestProxy(t *testing.T) {
	var target string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target = r.URL.Query().Get("target")
		io.WriteString(w, respond(`<array><data></data></array>`))
	}))
	defer proxy.Close()

	c, err := New(Config{
		Endpoint: "https://blog.example/action/xmlrpc",
		ProxyURL: proxy.URL,
		Username: "u",
		Password: "p",
	})
	require.NoError(t, err)

	methods, err := c.ListMethods(context.Background())
	require.NoError(t, err)
	assert.Empty(t, methods)
	assert.Equal(t, "https://blog.example/action/xmlrpc", target)
}
