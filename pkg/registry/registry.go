// Package registry implements the per-document store for named sources,
// styles, configs, and reactive parameter bindings.
//
// A Registry is created fresh for each document render and discarded when
// the render lifecycle ends. It is exclusively owned by one engine
// instance; there is no process-wide shared registry, so independently
// rendered documents can never observe each other's state.
//
// Registration follows document order with last-write-wins semantics:
// registering a second value under the same kind and name replaces the
// first. Parameter bindings additionally carry subscriber callbacks that
// are invoked synchronously, in subscription order, whenever the
// parameter's value changes.
package registry

import (
	"sync"

	"github.com/matzehuels/vizdeck/pkg/block"
)

type entryKey struct {
	kind block.Kind
	name string
}

// Subscriber receives the new value of a parameter it subscribed to.
type Subscriber func(value any)

type subscription struct {
	id int
	fn Subscriber
}

type binding struct {
	value any
	set   bool
	subs  []subscription
}

// Registry is the per-document key/value store. Reads are safe for
// concurrent use so chart blocks may resolve their specs in parallel
// after registration completes; writes are serialized by the engine.
type Registry struct {
	mu      sync.RWMutex
	entries map[entryKey]any
	params  map[string]*binding
	nextSub int
}

// New creates an empty registry for one document render.
func New() *Registry {
	return &Registry{
		entries: make(map[entryKey]any),
		params:  make(map[string]*binding),
	}
}

// Register stores value under (kind, name). Re-registration overwrites the
// prior value (last-write-wins in document order).
func (r *Registry) Register(kind block.Kind, name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entryKey{kind, name}] = value
}

// Get returns the value registered under (kind, name).
func (r *Registry) Get(kind block.Kind, name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[entryKey{kind, name}]
	return v, ok
}

// Len returns the number of registered (kind, name) entries, excluding
// parameter bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// SetParam updates the binding for name and invokes its subscribers
// synchronously, in subscription order, with the new value. Subscribers
// are invoked without the registry lock held, so a callback may read
// registry state or update other parameters.
func (r *Registry) SetParam(name string, value any) {
	r.mu.Lock()
	b := r.params[name]
	if b == nil {
		b = &binding{}
		r.params[name] = b
	}
	b.value = value
	b.set = true
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	r.mu.Unlock()

	for _, s := range subs {
		s.fn(value)
	}
}

// Param returns the current value of the named parameter binding.
func (r *Registry) Param(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.params[name]; ok && b.set {
		return b.value, true
	}
	return nil, false
}

// Params returns a snapshot of all set parameter bindings.
func (r *Registry) Params() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]any, len(r.params))
	for name, b := range r.params {
		if b.set {
			out[name] = b.value
		}
	}
	return out
}

// Subscribe registers fn to be invoked on every subsequent update of the
// named parameter. It returns a cancel function that removes the
// subscription; cancelling twice is a no-op.
func (r *Registry) Subscribe(name string, fn Subscriber) (cancel func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.params[name]
	if b == nil {
		b = &binding{}
		r.params[name] = b
	}
	r.nextSub++
	id := r.nextSub
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of active subscriptions for name.
func (r *Registry) SubscriberCount(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.params[name]; ok {
		return len(b.subs)
	}
	return 0
}
