package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType string `json:"repository_type"`
	PublisherType  string `json:"publisher_type"`
	UseCurrentTime bool   `json:"use_current_time"`
	TimeOffset     string `json:"time_offset"`
	Published      int    `json:"published_this_session"`
	Repository     any    `json:"repository,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := ServiceState{
		RepositoryType: componentType(s.repo, "repository"),
		PublisherType:  componentType(s.publisher, "publisher"),
		UseCurrentTime: s.useCurrentTime,
		TimeOffset:     s.timeOffset.String(),
		Published:      len(s.published),
	}
	if repo, ok := s.repo.(introspection.Introspectable); ok {
		state.Repository = repo.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

func componentType(v any, fallback string) string {
	if v == nil {
		return "none"
	}
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fallback
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
