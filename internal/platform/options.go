package platform

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/settings"
)

// options holds the internal configuration for the quill service.
type options struct {
	repository core.Repository
	publisher  core.Publisher
	logger     *slog.Logger
	settings   settings.Settings
	httpClient *http.Client
	clock      func() time.Time

	versioning   *bool
	autoInit     bool
	mustExist    bool
	systemDir    string
	eventBuffer  int
	debounce     time.Duration
	errorHandler func(error)
}

// Option defines a functional option for configuring quill.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		settings: settings.Default(),
		autoInit: true,
	}
}

func (o *options) versioningEnabled() bool {
	if o.versioning != nil {
		return *o.versioning
	}
	return o.settings.Versioning
}

// WithSettings supplies the endpoint, credentials and date handling.
// Without it, publishing returns core.ErrNotConfigured.
func WithSettings(s settings.Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

// WithAutoInit runs git init on a directory that is not yet a repository.
// Only relevant when versioning is enabled. Defaults to true.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithVersioning commits every saved document with Git.
// Overrides the versioning flag of the settings.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		o.versioning = &enabled
	}
}

// WithMustExist fails instead of creating a missing root directory.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithLogger sets the logger for the service and its adapters.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a custom storage adapter.
// If provided, the filesystem adapter is skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithPublisher injects a custom publisher.
// If provided, the settings are not used to build the MetaWeblog client.
func WithPublisher(p core.Publisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithHTTPClient sets the client used for XML-RPC calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithClock replaces time.Now when stamping posts.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}

// WithSystemDir sets the hidden directory name. Defaults to ".quill".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithEventBuffer sets the size of the watch event channel.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithDebounce sets how long bursts of changes to one document are coalesced.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithWatcherErrorHandler registers a callback for errors raised by the
// watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
