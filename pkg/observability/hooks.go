// Package observability defines hook interfaces for engine and cache
// events.
//
// Hooks enable optional instrumentation without adding hard dependencies
// on specific observability backends. Unlike a global hook registry, every
// hook set here is owned by the engine instance that fires it: the host
// passes implementations when constructing an engine, and independently
// created engines never share observer state. No-op defaults are used for
// anything the host does not provide.
//
// # Usage
//
//	eng := engine.New(engine.Options{
//	    Hooks:      &myEngineHooks{},
//	    CacheHooks: &myCacheHooks{},
//	})
package observability

import "context"

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from a document render lifecycle.
type EngineHooks interface {
	// OnProgress reports render progress as a percentage in [0, 100].
	// It fires after each block completes in pass 2.
	OnProgress(ctx context.Context, percent int)

	// OnError reports a per-block failure that was isolated by the error
	// boundary. The document render itself continues.
	OnError(ctx context.Context, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from source-resolution cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit for the given key.
	OnCacheHit(ctx context.Context, key string)

	// OnCacheMiss records a cache miss for the given key.
	OnCacheMiss(ctx context.Context, key string)

	// OnCacheSet records a cache write of size bytes.
	OnCacheSet(ctx context.Context, key string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnProgress(context.Context, int) {}
func (NoopEngineHooks) OnError(context.Context, error)  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	_ EngineHooks = NoopEngineHooks{}
	_ CacheHooks  = NoopCacheHooks{}
)
