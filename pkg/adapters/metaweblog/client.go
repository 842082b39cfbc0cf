// Package metaweblog publishes posts through the MetaWeblog XML-RPC API,
// as served by Typecho, WordPress and similar blog engines.
package metaweblog

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/xmlrpc"
)

// Method names used by the adapter.
const (
	MethodNewPost     = "metaWeblog.newPost"
	MethodEditPost    = "metaWeblog.editPost"
	MethodListMethods = "system.listMethods"
)

// DefaultBlogID is sent when no blog ID is configured.
const DefaultBlogID = "0"

// Config holds the endpoint and credentials.
type Config struct {
	Endpoint string
	ProxyURL string
	Username string
	Password string
	BlogID   string

	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client implements core.Publisher.
type Client struct {
	rpc      *xmlrpc.Client
	blogID   string
	username string
	password string
	logger   *slog.Logger
}

// New validates cfg and creates a client. Missing endpoint or credentials
// yield core.ErrNotConfigured.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, core.ErrNotConfigured
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: must be an http(s) URL", cfg.Endpoint)
	}
	if cfg.BlogID == "" {
		cfg.BlogID = DefaultBlogID
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []xmlrpc.ClientOption{
		xmlrpc.WithLogger(cfg.Logger),
		xmlrpc.WithProxy(cfg.ProxyURL),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, xmlrpc.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		rpc:      xmlrpc.NewClient(cfg.Endpoint, opts...),
		blogID:   cfg.BlogID,
		username: cfg.Username,
		password: cfg.Password,
		logger:   cfg.Logger,
	}, nil
}

// NewPost creates a post and returns the ID the blog assigned to it.
func (c *Client) NewPost(ctx context.Context, post core.Post) (string, error) {
	res, err := c.rpc.Call(ctx, MethodNewPost,
		xmlrpc.String(c.blogID),
		xmlrpc.String(c.username),
		xmlrpc.String(c.password),
		postStruct(post),
		xmlrpc.Bool(!post.Draft),
	)
	if err != nil {
		return "", err
	}

	id, err := remoteID(res)
	if err != nil {
		return "", fmt.Errorf("%s: %w", MethodNewPost, err)
	}
	c.logger.Debug("post created", "cid", id)
	return id, nil
}

// EditPost replaces the post with the given ID.
func (c *Client) EditPost(ctx context.Context, id string, post core.Post) error {
	res, err := c.rpc.Call(ctx, MethodEditPost,
		xmlrpc.String(id),
		xmlrpc.String(c.username),
		xmlrpc.String(c.password),
		postStruct(post),
		xmlrpc.Bool(!post.Draft),
	)
	if err != nil {
		return err
	}
	if ok, isBool := res.(xmlrpc.Bool); isBool && !bool(ok) {
		return fmt.Errorf("%s: server refused to update post %s", MethodEditPost, id)
	}
	return nil
}

// ListMethods asks the endpoint which methods it serves. It doubles as a
// connection and credentials-free reachability test.
func (c *Client) ListMethods(ctx context.Context) ([]string, error) {
	res, err := c.rpc.Call(ctx, MethodListMethods)
	if err != nil {
		return nil, err
	}
	arr, ok := res.(xmlrpc.Array)
	if !ok {
		return nil, fmt.Errorf("%s: expected array, got %T", MethodListMethods, res)
	}
	methods := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(xmlrpc.String); ok {
			methods = append(methods, string(s))
		}
	}
	return methods, nil
}

// ComponentType implements introspection.Component.
func (c *Client) ComponentType() string {
	return "metaweblog"
}

// postStruct builds the MetaWeblog content struct.
func postStruct(post core.Post) *xmlrpc.Struct {
	categories := make(xmlrpc.Array, 0, len(post.Categories))
	for _, cat := range post.Categories {
		categories = append(categories, xmlrpc.String(cat))
	}

	return xmlrpc.NewStruct().
		Set("title", xmlrpc.String(post.Title)).
		Set("description", xmlrpc.String(post.Body)).
		Set("mt_keywords", xmlrpc.String(strings.Join(post.Tags, ","))).
		Set("categories", categories).
		Set("post_type", xmlrpc.String("post")).
		Set("wp_slug", xmlrpc.String(post.Slug)).
		Set("mt_allow_comments", xmlrpc.Int(1)).
		Set("dateCreated", xmlrpc.NewDateTime(post.DateCreated))
}

func remoteID(v xmlrpc.Value) (string, error) {
	switch id := v.(type) {
	case xmlrpc.Int:
		return strconv.FormatInt(int64(id), 10), nil
	case xmlrpc.String:
		if s := strings.TrimSpace(string(id)); s != "" {
			return s, nil
		}
	case xmlrpc.Double:
		return strconv.FormatFloat(float64(id), 'f', -1, 64), nil
	}
	return "", fmt.Errorf("unexpected post id %v (%T)", v, v)
}

var _ core.Publisher = (*Client)(nil)
