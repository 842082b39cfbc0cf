package quill

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/quill/internal/platform"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/settings"
)

// --- Configuration ---

// Option defines a functional option for configuring quill.
type Option = platform.Option

// WithSettings supplies the endpoint, credentials and date handling.
func WithSettings(s settings.Settings) Option {
	return platform.WithSettings(s)
}

// WithAutoInit runs git init on a directory that is not yet a repository.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning commits every saved document with Git.
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithMustExist fails instead of creating a missing root directory.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithPublisher allows injecting a custom publisher.
func WithPublisher(p core.Publisher) Option {
	return platform.WithPublisher(p)
}

// WithHTTPClient sets the client used for XML-RPC calls.
func WithHTTPClient(c *http.Client) Option {
	return platform.WithHTTPClient(c)
}

// WithSystemDir sets the hidden directory name (default ".quill").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithEventBuffer sets the size of the watch event channel.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithDebounce sets how long bursts of changes to one document are coalesced.
func WithDebounce(d time.Duration) Option {
	return platform.WithDebounce(d)
}

// WithWatcherErrorHandler registers a callback for watch loop errors.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a new publishing service rooted at path.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init prepares a document root explicitly.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// --- Utils ---

// FindRoot looks upwards from startDir for a directory holding .quill or .git.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// LoadSettings reads the settings file, or the default location when path
// is empty.
func LoadSettings(path string) (settings.Settings, error) {
	if path == "" {
		var err error
		if path, err = settings.DefaultPath(); err != nil {
			return settings.Settings{}, err
		}
	}
	return settings.Load(path)
}
