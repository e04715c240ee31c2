// Package registry holds the process-wide catalogue of FunctionRef handles.
//
// Handles are created lazily on first use and never replaced afterwards, so every
// caller asking for the same name shares one immutable FunctionRef. The registry does
// not know which functions exist remotely; it never validates names or arguments.
package registry

import (
	"sort"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
)

// Registry manages the FunctionRef handles.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]*domain.FunctionRef
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]*domain.FunctionRef),
	}
}

// Function returns the handle for name, creating it on first use.
// An existing handle is never overwritten.
func (r *Registry) Function(name string) *domain.FunctionRef {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if ok {
		return fn
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if fn, ok := r.funcs[name]; ok {
		return fn
	}
	fn = domain.NewFunctionRef(name)
	r.funcs[name] = fn
	return fn
}

// Lookup returns the handle for name without creating it.
func (r *Registry) Lookup(name string) (*domain.FunctionRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names lists the names handed out so far, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Function returns the process-wide handle for name.
func Function(name string) *domain.FunctionRef {
	return defaultRegistry.Function(name)
}

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}
