package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	CacheSize     int        `json:"cache_size"`
	Versioning    bool       `json:"versioning"`
	Serializers   []string   `json:"serializers"`
	WatcherActive bool       `json:"watcher_active"`
	Saves         int        `json:"saves"`
	SkippedSaves  int        `json:"skipped_saves"`
	LastSave      *time.Time `json:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	serializers := make([]string, 0, len(r.serializers))
	for ext := range r.serializers {
		serializers = append(serializers, ext)
	}
	sort.Strings(serializers)

	return RepositoryState{
		Path:          r.Path,
		SystemDir:     r.config.SystemDir,
		CacheSize:     r.cache.Len(),
		Versioning:    r.config.Versioning,
		Serializers:   serializers,
		WatcherActive: r.watcherActive,
		Saves:         r.saves,
		SkippedSaves:  r.skipped,
		LastSave:      r.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}
