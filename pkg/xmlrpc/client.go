package xmlrpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody bounds the response excerpt kept in an HTTPError.
const maxErrorBody = 200

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// Client sends XML-RPC calls over HTTP POST.
type Client struct {
	endpoint string
	proxy    string
	http     *http.Client
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithProxy routes requests through a CORS-style forwarding proxy.
// See ProxiedURL for the accepted forms.
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxy = proxyURL
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the given endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Endpoint returns the configured endpoint, before proxying.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call encodes the request, posts it and decodes the response.
// Faults come back as *Fault, bad statuses as *HTTPError.
func (c *Client) Call(ctx context.Context, method string, params ...Value) (Value, error) {
	body := EncodeCall(method, params...)
	target := ProxiedURL(c.endpoint, c.proxy)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml")

	c.logger.Debug("xml-rpc call", "method", method, "url", target, "params", len(params))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("xml-rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := data
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(excerpt))}
	}

	v, err := DecodeResponse(data)
	if err != nil {
		if f, ok := IsFault(err); ok {
			c.logger.Debug("xml-rpc fault", "method", method, "code", f.Code, "message", f.Message)
		}
		return nil, err
	}
	return v, nil
}

// ProxiedURL rewrites endpoint so it is reached through proxy.
//
// An empty proxy returns endpoint unchanged. A proxy containing "{target}" has
// the escaped endpoint substituted in. Otherwise the escaped endpoint is added
// as a "target" query parameter, or appended as a path segment when the proxy
// ends with "/".
func ProxiedURL(endpoint, proxy string) string {
	if proxy == "" {
		return endpoint
	}
	escaped := url.QueryEscape(endpoint)
	switch {
	case strings.Contains(proxy, "{target}"):
		return strings.ReplaceAll(proxy, "{target}", escaped)
	case strings.Contains(proxy, "?"):
		return proxy + "&target=" + escaped
	case strings.HasSuffix(proxy, "/"):
		return proxy + escaped
	default:
		return proxy + "?target=" + escaped
	}
}
