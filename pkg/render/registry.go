package render

import (
	"context"
	"sort"
	"sync"

	"github.com/matzehuels/vizdeck/pkg/errors"
)

// RendererFunc draws a chart into the given container. The contract is
// documented in the package comment: clear the container first, report
// missing required attributes as MISSING_REQUIRED_CONFIG, and confine all
// side effects to the container.
type RendererFunc func(ctx context.Context, c *Container, data Data, cfg *Config) error

// Registry maps chart type names to renderer capabilities. Renderers are
// pluggable at runtime; registration validates the fixed function
// contract rather than relying on any type hierarchy.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]RendererFunc
}

// NewRegistry creates an empty renderer registry. The core registers no
// renderers itself; hosts plug in chart types at the boundary.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]RendererFunc)}
}

// Register adds a renderer under typeName, replacing any previous
// registration. It rejects an empty type name or nil function.
func (r *Registry) Register(typeName string, fn RendererFunc) error {
	if typeName == "" {
		return errors.New(errors.ErrCodeInvalidInput, "renderer type name cannot be empty")
	}
	if fn == nil {
		return errors.New(errors.ErrCodeInvalidInput, "renderer for %q cannot be nil", typeName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[typeName] = fn
	return nil
}

// Lookup returns the renderer registered under typeName.
func (r *Registry) Lookup(typeName string) (RendererFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.renderers[typeName]
	return fn, ok
}

// Types returns the registered chart type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
