// Package lifecycle exposes document change events as a lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/quill/pkg/core"
)

type eventSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource bridges a watch channel to the generic lifecycle Event interface.
// The output closes when the input closes or the context passed to Start ends.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &eventSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start runs the bridge in a tracked goroutine and returns immediately.
func (s *eventSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				// core.Event satisfies lifecycle.Event through String.
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
