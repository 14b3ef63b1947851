// Package engine drives the two-pass block registration and render
// protocol for visualization documents.
//
// An Engine holds host-level collaborators: the renderer registry, the
// cache, a logger, and observability hooks. Each document render runs
// inside a Session owning a fresh per-document Registry; creating a new
// Session is the unit of isolation between independently rendered
// documents. There is no ambient process-wide registry.
//
// # Usage
//
// One-shot render:
//
//	eng := engine.New(engine.Options{Renderers: renderers})
//	result, err := eng.Render(ctx, doc.Blocks, 960)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.SVG)
//
// Live document with parameter updates:
//
//	session := eng.NewSession(doc.Blocks, 960)
//	defer session.Close()
//	result, _ := session.Render(ctx)
//	session.SetParam(ctx, "region", "eu")
//	svg, _ := session.Compose()
package engine

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/cache"
	"github.com/matzehuels/vizdeck/pkg/observability"
	"github.com/matzehuels/vizdeck/pkg/render"
)

// Options configures an Engine.
type Options struct {
	// Renderers maps chart type names to renderers. Required for any
	// document containing chart blocks.
	Renderers *render.Registry

	// Cache backs source resolution and rendered artifacts. Nil
	// disables caching.
	Cache cache.Cache

	// Keyer generates cache keys. Nil uses the default keyer.
	Keyer cache.Keyer

	// Logger receives pipeline diagnostics. Nil discards output.
	Logger *log.Logger

	// Hooks receives progress and error events. Nil installs no-ops.
	Hooks observability.EngineHooks

	// CacheHooks receives cache hit/miss events fired during source and
	// artifact resolution. Nil installs no-ops.
	CacheHooks observability.CacheHooks

	// DebounceDelay is the settle window for live edit bursts. Zero
	// uses DefaultDebounceDelay.
	DebounceDelay time.Duration

	// Concurrency caps concurrent chart renders within one pass. Values
	// below 2 render sequentially in document order.
	Concurrency int
}

// Engine renders documents. It is stateless across renders except for
// cache and logger, so one Engine may serve many documents and
// goroutines concurrently.
type Engine struct {
	renderers   *render.Registry
	cache       cache.Cache
	keyer       cache.Keyer
	logger      *log.Logger
	hooks       observability.EngineHooks
	cacheHooks  observability.CacheHooks
	debounce    time.Duration
	concurrency int
}

// New creates an engine, filling unset options with safe defaults.
func New(opts Options) *Engine {
	if opts.Renderers == nil {
		opts.Renderers = render.NewRegistry()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Hooks == nil {
		opts.Hooks = observability.NoopEngineHooks{}
	}
	if opts.CacheHooks == nil {
		opts.CacheHooks = observability.NoopCacheHooks{}
	}
	if opts.DebounceDelay <= 0 {
		opts.DebounceDelay = DefaultDebounceDelay
	}
	return &Engine{
		renderers:   opts.Renderers,
		cache:       opts.Cache,
		keyer:       opts.Keyer,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
		cacheHooks:  opts.CacheHooks,
		debounce:    opts.DebounceDelay,
		concurrency: opts.Concurrency,
	}
}

// Render runs the full two-pass protocol over blocks once and returns
// the composed result. The per-document registry is created for this
// call and discarded when it returns.
func (e *Engine) Render(ctx context.Context, blocks []block.Block, canvasWidth float64) (*Result, error) {
	s := e.NewSession(blocks, canvasWidth)
	defer s.Close()
	return s.Render(ctx)
}

// ExpectedDimensions predicts a chart block's size before rendering, so
// the host can reserve layout space. This is a best-effort hint and
// never fails.
func (e *Engine) ExpectedDimensions(blk block.Block, canvasWidth float64) render.Dimensions {
	attrs := blk.Attrs
	if attrs == nil {
		attrs = block.NewAttrs()
	}
	typ := ""
	if viz := attrs.Child("visualize"); viz != nil {
		typ = viz.String("type")
	}
	colSpan := blockColSpan(attrs)
	cfg := &render.Config{
		Type:    typ,
		Attrs:   attrs,
		ColSpan: colSpan,
		Height:  attrs.Float("height", 0),
	}
	return render.EstimateDimensions(cfg, render.CellWidth(canvasWidth, colSpan))
}

// Close releases the engine's cache resources.
func (e *Engine) Close() error {
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}
