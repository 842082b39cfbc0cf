package platform

import (
	"github.com/aretw0/quill/pkg/core"
)

// New wires the repository, the publisher and the domain service.
//
//	svc, err := quill.New("./posts", quill.WithSettings(s))
func New(root string, opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := initRepository(root, o)
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(o)
	if err != nil {
		return nil, err
	}

	serviceOpts := []core.ServiceOption{
		core.WithUseCurrentTime(o.settings.UseCurrentTime),
		core.WithTimeOffset(o.settings.TimeOffset()),
	}
	if publisher != nil {
		serviceOpts = append(serviceOpts, core.WithPublisher(publisher))
	}
	if o.logger != nil {
		serviceOpts = append(serviceOpts, core.WithServiceLogger(o.logger))
	}
	if o.clock != nil {
		serviceOpts = append(serviceOpts, core.WithClock(o.clock))
	}

	return core.NewService(repo, serviceOpts...), nil
}
