// internal/api/registry.go
//
// Name to handler-factory registry.
//
// Context
// -------
// Components register a Factory under a case-insensitive name during
// startup.  Find builds a fresh Handler on every call, so no state leaks
// between requests.  Registering a name twice is an error.
//
//------------------------------------------------------------------------------

package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/yanizio/peneus/internal/apperr"
)

// Factory builds a fresh Handler for one request.
type Factory func() Handler

// Registry maps handler names onto factories.  Names are trimmed and
// compared case-insensitively.  Entries are never removed.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Factory)}
}

// Register adds name.  Empty names, duplicates, and nil factories are
// rejected with InvalidArgument.
func (r *Registry) Register(name string, f Factory) error {
	key := normalise(name)
	if key == "" {
		return apperr.InvalidArgument("Handler name cannot be empty.")
	}
	if f == nil {
		return apperr.InvalidArgument("Handler factory for '%s' is nil.", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.m[key]; dup {
		return apperr.InvalidArgument("Handler '%s' is already registered.", key)
	}
	r.m[key] = f
	return nil
}

// Find returns a new Handler for name, or nil.
func (r *Registry) Find(name string) Handler {
	r.mu.RLock()
	f, ok := r.m[normalise(name)]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return f()
}

// Names lists registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalise(name string) string { return strings.ToLower(strings.TrimSpace(name)) }
