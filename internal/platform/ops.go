package platform

import (
	"context"
	"errors"

	"github.com/aretw0/quill/pkg/adapters/fs"
	"github.com/aretw0/quill/pkg/adapters/metaweblog"
	"github.com/aretw0/quill/pkg/core"
)

// Init prepares the document root and returns the configured core.Repository.
// The directory is created unless WithMustExist is set, and with versioning
// enabled it becomes a Git repository.
func Init(root string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(root, o)
}

func initRepository(root string, o *options) (core.Repository, error) {
	if o.repository != nil {
		return o.repository, nil
	}

	repo := fs.NewRepository(fs.Config{
		Path:         root,
		MustExist:    o.mustExist,
		Logger:       o.logger,
		SystemDir:    o.systemDir,
		Versioning:   o.versioningEnabled(),
		AutoInit:     o.autoInit,
		EventBuffer:  o.eventBuffer,
		Debounce:     o.debounce,
		ErrorHandler: o.errorHandler,
	})

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// newPublisher returns the injected publisher, or a MetaWeblog client built
// from the settings. Incomplete settings yield a nil publisher, so reading
// and listing keep working while publishing reports core.ErrNotConfigured.
func newPublisher(o *options) (core.Publisher, error) {
	if o.publisher != nil {
		return o.publisher, nil
	}
	s := o.settings
	if err := s.Validate(); err != nil {
		if o.logger != nil {
			o.logger.Debug("publisher disabled", "reason", err)
		}
		return nil, nil
	}

	client, err := metaweblog.New(metaweblog.Config{
		Endpoint:   s.Endpoint,
		ProxyURL:   s.ProxyURL,
		Username:   s.Username,
		Password:   s.Password,
		BlogID:     s.BlogID,
		Logger:     o.logger,
		HTTPClient: o.httpClient,
	})
	if errors.Is(err, core.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
