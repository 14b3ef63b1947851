package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/cache"
	"github.com/matzehuels/vizdeck/pkg/errors"
	"github.com/matzehuels/vizdeck/pkg/registry"
	"github.com/matzehuels/vizdeck/pkg/render"
)

// Session is the orchestrator for one live document. It owns the
// document's registry for the duration of one render lifecycle and the
// generation counters backing the stale-render guard. Sessions are not
// shared between documents.
type Session struct {
	eng *Engine

	mu     sync.Mutex
	blocks []block.Block
	width  float64

	reg    *registry.Registry
	grid   *render.Grid
	charts []*chartState

	// subMu guards cancels; chart renders may subscribe concurrently.
	subMu   sync.Mutex
	cancels []func()

	debouncer *Debouncer
	onRender  func(*Result, error)

	closed bool
}

// chartState tracks one chart block across renders within a session.
type chartState struct {
	index  int
	handle uuid.UUID
	blk    block.Block
	cell   *render.Cell

	// gen is the latest started render generation for this block. A
	// render compares its own generation before applying output and
	// discards itself when a newer one has started.
	gen     atomic.Uint64
	applyMu sync.Mutex
}

// NewSession creates a live session for a document. Call Render to
// produce output and Close when done.
func (e *Engine) NewSession(blocks []block.Block, canvasWidth float64) *Session {
	s := &Session{
		eng:    e,
		blocks: blocks,
		width:  canvasWidth,
	}
	s.debouncer = NewDebouncer(e.debounce, s.renderDebounced)
	return s
}

// OnRender installs a callback invoked after each debounced re-render.
func (s *Session) OnRender(fn func(*Result, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRender = fn
}

// Update replaces the document's blocks and schedules a debounced
// re-render. Bursts of updates inside the debounce window settle into
// exactly one render reflecting the last update.
func (s *Session) Update(blocks []block.Block) {
	s.mu.Lock()
	s.blocks = blocks
	s.mu.Unlock()
	s.debouncer.Trigger()
}

func (s *Session) renderDebounced() {
	result, err := s.Render(context.Background())
	s.mu.Lock()
	fn := s.onRender
	s.mu.Unlock()
	if fn != nil {
		fn(result, err)
	}
}

// Render runs the two-pass protocol over the session's current blocks.
// A fresh registry replaces the previous render's registry, so no state
// leaks between renders. Block failures surface as inline error output
// and Result.Errors entries; Render itself fails only on a cancelled
// context.
func (s *Session) Render(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render cancelled")
	}

	s.cancelSubscriptions()
	s.reg = registry.New()
	s.grid = render.NewGrid(s.width)
	s.charts = nil

	result := &Result{Width: s.grid.Width()}
	classified := block.Classify(s.blocks)

	// Pass 1: register sources, styles, and configs in document order.
	// Failures leave no registry entry and never stop siblings.
	registerStart := time.Now()
	for _, cb := range classified {
		if cb.Err != nil || cb.IsVisual() {
			continue
		}
		if err := s.registerBlock(ctx, cb); err != nil {
			s.reportBlockError(ctx, result, cb.Index, err)
			continue
		}
		result.Stats.Registered++
	}
	result.Stats.RegisterTime = time.Since(registerStart)

	// Place grid cells for every visual block up front, so renderers
	// can query their final available width.
	renderStart := time.Now()
	var visual []*chartState
	for _, cb := range classified {
		if cb.Err == nil && !cb.IsVisual() {
			continue
		}
		st := &chartState{
			index:  cb.Index,
			handle: uuid.New(),
			blk:    cb.Block,
			cell:   s.grid.Place(blockColSpan(cb.Block.Attrs)),
		}
		visual = append(visual, st)
		if cb.Err == nil && cb.Resolved == block.KindChart {
			s.charts = append(s.charts, st)
		}
	}

	results := make(map[int]*BlockResult, len(visual))
	for _, st := range visual {
		results[st.index] = &BlockResult{
			Handle: st.handle,
			Index:  st.index,
			Width:  st.cell.Container.Width(),
		}
	}

	// Pass 2: params blocks first, then charts, each group in document
	// order. Params must publish before any chart resolves its spec.
	var done atomic.Int64
	total := len(visual)
	progress := func() {
		if total == 0 {
			return
		}
		s.eng.hooks.OnProgress(ctx, int(done.Add(1))*100/total)
	}

	for _, cb := range classified {
		st := stateFor(visual, cb.Index)
		switch {
		case cb.Err != nil:
			s.failBlock(ctx, result, results[cb.Index], st, cb.Err)
			progress()
		case cb.Resolved == block.KindParams:
			s.renderParams(ctx, result, results[cb.Index], st, cb.Block)
			progress()
		}
	}

	var resultMu sync.Mutex
	renderOne := func(st *chartState) {
		start := time.Now()
		br := results[st.index]
		br.Kind = block.KindChart
		err := s.renderChart(ctx, st, br)
		br.RenderTime = time.Since(start)
		if err != nil {
			resultMu.Lock()
			s.failBlock(ctx, result, br, st, err)
			resultMu.Unlock()
		}
		progress()
	}

	if s.eng.concurrency > 1 && len(s.charts) > 1 {
		sem := make(chan struct{}, s.eng.concurrency)
		var wg sync.WaitGroup
		for _, st := range s.charts {
			wg.Add(1)
			sem <- struct{}{}
			go func(st *chartState) {
				defer wg.Done()
				defer func() { <-sem }()
				renderOne(st)
			}(st)
		}
		wg.Wait()
	} else {
		for _, st := range s.charts {
			renderOne(st)
		}
	}

	for _, st := range visual {
		br := results[st.index]
		br.Height = st.cell.Container.Height()
		result.Blocks = append(result.Blocks, *br)
		result.Stats.Rendered++
	}
	result.SVG, result.Height = s.grid.Compose()
	result.Stats.RenderTime = time.Since(renderStart)

	s.eng.logger.Info("rendered document",
		"blocks", len(s.blocks),
		"visual", len(visual),
		"errors", len(result.Errors),
		"duration", result.Stats.RegisterTime+result.Stats.RenderTime)
	return result, nil
}

// SetParam publishes a parameter value into the current registry.
// Subscribed chart blocks re-render synchronously; unrelated blocks are
// untouched. Call Compose afterwards for the updated document output.
func (s *Session) SetParam(ctx context.Context, name string, value any) {
	s.mu.Lock()
	reg := s.reg
	s.mu.Unlock()
	if reg == nil {
		return
	}
	reg.SetParam(name, value)
}

// Param reads a parameter value from the current registry.
func (s *Session) Param(name string) (any, bool) {
	s.mu.Lock()
	reg := s.reg
	s.mu.Unlock()
	if reg == nil {
		return nil, false
	}
	return reg.Param(name)
}

// Compose re-assembles the document SVG from the current block
// containers. Cheap to call after SetParam.
func (s *Session) Compose() ([]byte, float64) {
	s.mu.Lock()
	grid := s.grid
	s.mu.Unlock()
	if grid == nil {
		return nil, 0
	}
	return grid.Compose()
}

// Close stops the debouncer and cancels parameter subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.debouncer.Stop()
	s.cancelSubscriptions()
}

func (s *Session) cancelSubscriptions() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

// registerBlock writes one non-visual block into the registry. The
// write happens only after the value resolves, so a failure leaves no
// partial entry.
func (s *Session) registerBlock(ctx context.Context, cb block.Classified) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeSpec, "registration panic: %v", r)
		}
	}()

	if cb.Block.Name == "" {
		return errors.New(errors.ErrCodeSpec, "%s block requires a name", cb.Resolved)
	}

	var value any
	switch cb.Resolved {
	case block.KindSource:
		data, err := s.eng.resolveSource(ctx, cb.Block)
		if err != nil {
			return err
		}
		value = data
	default:
		attrs := cb.Block.Attrs
		if attrs == nil {
			attrs = block.NewAttrs()
		}
		value = attrs
	}

	s.reg.Register(cb.Resolved, cb.Block.Name, value)
	s.eng.logger.Debug("registered block",
		"kind", cb.Resolved, "name", cb.Block.Name, "index", cb.Index)
	return nil
}

// renderParams publishes a params block's values and draws its control
// surface.
func (s *Session) renderParams(ctx context.Context, result *Result, br *BlockResult, st *chartState, blk block.Block) {
	br.Kind = block.KindParams
	start := time.Now()
	attrs := blk.Attrs
	if attrs == nil {
		attrs = block.NewAttrs()
	}

	if blk.Name != "" {
		s.reg.Register(block.KindParams, blk.Name, attrs)
	}
	attrs.Range(func(name string, value any) bool {
		s.reg.SetParam(name, value)
		return true
	})

	drawParamControls(st.cell.Container, attrs)
	br.RenderTime = time.Since(start)
}

// renderChart resolves one chart block's spec and renders it with the
// stale-render guard. The caller handles the returned error via
// failBlock.
func (s *Session) renderChart(ctx context.Context, st *chartState, br *BlockResult) error {
	gen := st.gen.Add(1)

	spec, err := resolveChartSpec(s.reg, st.blk)
	if err != nil {
		return err
	}
	br.Type = spec.cfg.Type

	renderer, ok := s.eng.renderers.Lookup(spec.cfg.Type)
	if !ok {
		return errors.New(errors.ErrCodeRendererNotFound, "no renderer registered for type %q", spec.cfg.Type)
	}

	width := st.cell.Container.Width()
	key := s.eng.keyer.ArtifactKey(spec.cfg.Hash(), cache.ArtifactKeyOpts{
		ChartType: spec.cfg.Type,
		Width:     width,
		ColSpan:   spec.cfg.ColSpan,
		Style:     spec.styleName,
	})

	if env, ok := s.cachedArtifact(ctx, key); ok {
		br.CacheHit = true
		s.applyOutput(st, gen, env.SVG, env.Height)
		s.subscribeChart(ctx, st, spec)
		return nil
	}

	scratch := render.NewContainer(width)
	if err := runRenderer(ctx, renderer, scratch, spec.cfg); err != nil {
		return err
	}

	s.applyOutput(st, gen, scratch.Bytes(), scratch.Height())
	s.storeArtifact(ctx, key, scratch)
	s.subscribeChart(ctx, st, spec)
	return nil
}

// runRenderer dispatches to a renderer, converting panics into
// RENDER_ERROR.
func runRenderer(ctx context.Context, fn render.RendererFunc, c *render.Container, cfg *render.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeRenderError, "renderer %q panicked: %v", cfg.Type, r)
		}
	}()
	if err := fn(ctx, c, cfg.Data, cfg); err != nil {
		if errors.GetCode(err) == errors.ErrCodeInternal {
			return errors.Wrap(errors.ErrCodeRenderError, err, "renderer %q failed", cfg.Type)
		}
		return err
	}
	return nil
}

// applyOutput writes rendered content into the block's cell unless a
// newer render generation has started for the block.
func (s *Session) applyOutput(st *chartState, gen uint64, content []byte, height float64) {
	st.applyMu.Lock()
	defer st.applyMu.Unlock()
	if st.gen.Load() != gen {
		s.eng.logger.Debug("discarded stale render", "index", st.index, "generation", gen)
		return
	}
	st.cell.Container.Replace(content, height)
}

// subscribeChart re-renders the chart when any parameter it depends on
// changes. Subscriptions are bound to this render's registry and live
// until the next full render or Close.
func (s *Session) subscribeChart(ctx context.Context, st *chartState, spec *chartSpec) {
	reg := s.reg
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, name := range spec.paramNames {
		cancel := reg.Subscribe(name, func(any) {
			s.rerenderChart(ctx, reg, st)
		})
		s.cancels = append(s.cancels, cancel)
	}
}

// rerenderChart runs a parameter-triggered re-render of a single chart
// block, guarded against stale application.
func (s *Session) rerenderChart(ctx context.Context, reg *registry.Registry, st *chartState) {
	gen := st.gen.Add(1)

	spec, err := resolveChartSpec(reg, st.blk)
	if err == nil {
		renderer, ok := s.eng.renderers.Lookup(spec.cfg.Type)
		if !ok {
			err = errors.New(errors.ErrCodeRendererNotFound, "no renderer registered for type %q", spec.cfg.Type)
		} else {
			scratch := render.NewContainer(st.cell.Container.Width())
			if rerr := runRenderer(ctx, renderer, scratch, spec.cfg); rerr != nil {
				err = rerr
			} else {
				s.applyOutput(st, gen, scratch.Bytes(), scratch.Height())
			}
		}
	}
	if err != nil {
		s.eng.logger.Warn("chart re-render failed", "index", st.index, "error", err)
		s.eng.hooks.OnError(ctx, err)
		s.applyErrorBox(st, gen, err)
	}
}

// failBlock records a block failure, draws the inline error box, and
// forwards the error to the host hook.
func (s *Session) failBlock(ctx context.Context, result *Result, br *BlockResult, st *chartState, err error) {
	if br != nil {
		br.Err = err
	}
	s.reportBlockError(ctx, result, st.index, err)
	s.applyErrorBox(st, st.gen.Load(), err)
}

func (s *Session) applyErrorBox(st *chartState, gen uint64, err error) {
	box := render.NewContainer(st.cell.Container.Width())
	render.RenderErrorBox(box, errors.GetCode(err), errors.UserMessage(err))
	s.applyOutput(st, gen, box.Bytes(), box.Height())
}

// reportBlockError logs an isolated block failure and forwards it to
// the host error hook.
func (s *Session) reportBlockError(ctx context.Context, result *Result, index int, err error) {
	result.Errors = append(result.Errors, BlockError{
		Code:       errors.GetCode(err),
		Message:    err.Error(),
		BlockIndex: index,
	})
	s.eng.logger.Warn("block failed", "index", index, "code", errors.GetCode(err), "error", err)
	s.eng.hooks.OnError(ctx, err)
}

// artifactEnvelope is the cached form of one rendered block.
type artifactEnvelope struct {
	Height float64 `json:"height"`
	SVG    []byte  `json:"svg"`
}

func (s *Session) cachedArtifact(ctx context.Context, key string) (artifactEnvelope, bool) {
	var env artifactEnvelope
	raw, hit, err := s.eng.cache.Get(ctx, key)
	if err != nil || !hit {
		s.eng.cacheHooks.OnCacheMiss(ctx, key)
		return env, false
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		s.eng.cacheHooks.OnCacheMiss(ctx, key)
		return env, false
	}
	s.eng.cacheHooks.OnCacheHit(ctx, key)
	return env, true
}

func (s *Session) storeArtifact(ctx context.Context, key string, c *render.Container) {
	env := artifactEnvelope{Height: c.Height(), SVG: c.Bytes()}
	raw, err := json.Marshal(env)
	if err != nil {
		return
	}
	if err := s.eng.cache.Set(ctx, key, raw, cache.TTLArtifact); err == nil {
		s.eng.cacheHooks.OnCacheSet(ctx, key, len(raw))
	}
}

func stateFor(states []*chartState, index int) *chartState {
	for _, st := range states {
		if st.index == index {
			return st
		}
	}
	return nil
}

// Param control surface dimensions.
const (
	ParamRowHeight = 32.0
	ParamPadding   = 16.0
)

// drawParamControls renders a params block's control surface: one
// labelled row per parameter with its current value.
func drawParamControls(c *render.Container, attrs *block.Attrs) {
	c.Clear()
	height := ParamPadding*2 + ParamRowHeight*float64(attrs.Len())
	if attrs.Len() == 0 {
		height = ParamPadding * 2
	}

	c.Printf(`  <rect x="0" y="0" width="%.1f" height="%.1f" rx="6" fill="#f8fafc" stroke="#e2e8f0"/>`+"\n",
		c.Width(), height)
	y := ParamPadding + ParamRowHeight/2
	attrs.Range(func(name string, value any) bool {
		c.Printf(`  <text x="%.1f" y="%.1f" font-size="13" fill="#334155" dominant-baseline="middle">%s</text>`+"\n",
			ParamPadding, y, name)
		c.Printf(`  <text x="%.1f" y="%.1f" font-size="13" fill="#0f172a" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n",
			c.Width()-ParamPadding, y, fmt.Sprintf("%v", value))
		y += ParamRowHeight
		return true
	})
	c.SetHeight(height)
}
