package engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/cache"
	"github.com/matzehuels/vizdeck/pkg/errors"
	"github.com/matzehuels/vizdeck/pkg/registry"
	"github.com/matzehuels/vizdeck/pkg/render"
)

// chartSpec is a chart block's spec resolved against the registry,
// together with the param names the block depends on.
type chartSpec struct {
	cfg        *render.Config
	paramsName string
	paramNames []string
	styleName  string
}

// resolveChartSpec merges a chart block's attributes with the named
// source, style, config, and params entries it references. Missing
// references fail with UNRESOLVED_REFERENCE scoped to this block.
func resolveChartSpec(reg *registry.Registry, blk block.Block) (*chartSpec, error) {
	attrs := blk.Attrs
	if attrs == nil {
		attrs = block.NewAttrs()
	}

	viz := attrs.Child("visualize")
	if viz == nil || viz.String("type") == "" {
		return nil, errors.New(errors.ErrCodeSpec, "chart block requires visualize.type")
	}

	spec := &chartSpec{
		cfg: &render.Config{
			Type:   viz.String("type"),
			Attrs:  attrs,
			Height: attrs.Float("height", 0),
		},
	}

	spec.cfg.ColSpan = blockColSpan(attrs)

	if ref := attrs.String("source"); ref != "" {
		v, ok := reg.Get(block.KindSource, ref)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnresolvedReference, "source %q is not registered", ref)
		}
		data, ok := v.(render.Data)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "source %q holds unexpected value", ref)
		}
		spec.cfg.Data = data
	}

	if ref := attrs.String("style"); ref != "" {
		v, ok := reg.Get(block.KindStyle, ref)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnresolvedReference, "style %q is not registered", ref)
		}
		style, ok := v.(*block.Attrs)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "style %q holds unexpected value", ref)
		}
		spec.cfg.Style = style
		spec.styleName = ref
	}

	if ref := attrs.String("config"); ref != "" {
		v, ok := reg.Get(block.KindConfig, ref)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnresolvedReference, "config %q is not registered", ref)
		}
		settings, ok := v.(*block.Attrs)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "config %q holds unexpected value", ref)
		}
		spec.cfg.Settings = settings
	}

	if ref := attrs.String("params"); ref != "" {
		v, ok := reg.Get(block.KindParams, ref)
		if !ok {
			return nil, errors.New(errors.ErrCodeUnresolvedReference, "params %q is not registered", ref)
		}
		params, ok := v.(*block.Attrs)
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "params %q holds unexpected value", ref)
		}
		spec.paramsName = ref
		spec.paramNames = params.Keys()
		spec.cfg.Params = make(map[string]any, len(spec.paramNames))
		for _, name := range spec.paramNames {
			if val, ok := reg.Param(name); ok {
				spec.cfg.Params[name] = val
			}
		}
	}

	return spec, nil
}

// blockColSpan reads layout.colSpan, clamped to the valid range.
func blockColSpan(attrs *block.Attrs) int {
	if attrs == nil {
		return render.DefaultColSpan
	}
	layout := attrs.Child("layout")
	if layout == nil {
		return render.DefaultColSpan
	}
	return render.ClampColSpan(layout.Int("colSpan", render.DefaultColSpan))
}

// resolveSource produces tabular data for a source block. Inline data
// is used as-is; file-backed sources resolve through the cache, firing
// the cache hooks.
func (e *Engine) resolveSource(ctx context.Context, blk block.Block) (render.Data, error) {
	attrs := blk.Attrs
	if attrs == nil {
		return nil, errors.New(errors.ErrCodeSpec, "source %q has no attributes", blk.Name)
	}

	if raw, ok := attrs.Get("data"); ok {
		return toData(raw)
	}

	if path := attrs.String("file"); path != "" {
		return e.loadFileSource(ctx, path)
	}

	return nil, errors.New(errors.ErrCodeSpec, "source %q requires inline data or a file path", blk.Name)
}

// loadFileSource reads tabular data from a YAML or JSON file, consulting
// the cache first.
func (e *Engine) loadFileSource(ctx context.Context, path string) (render.Data, error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	key := e.keyer.SourceKey(path, cache.SourceKeyOpts{Format: format})

	if raw, hit, err := e.cache.Get(ctx, key); err == nil && hit {
		var data render.Data
		if err := json.Unmarshal(raw, &data); err == nil {
			e.cacheHooks.OnCacheHit(ctx, key)
			return data, nil
		}
		// Corrupt entry, fall through to a fresh read.
	}
	e.cacheHooks.OnCacheMiss(ctx, key)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read source file %q", path)
	}

	var rows []any
	if err := yaml.Unmarshal(raw, &rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpec, err, "parse source file %q", path)
	}
	data, err := toData(rows)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(data); err == nil {
		if err := e.cache.Set(ctx, key, encoded, cache.TTLSource); err == nil {
			e.cacheHooks.OnCacheSet(ctx, key, len(encoded))
		}
	}
	return data, nil
}

// toData converts a decoded attribute value into tabular rows.
func toData(raw any) (render.Data, error) {
	rows, ok := raw.([]any)
	if !ok {
		return nil, errors.New(errors.ErrCodeSpec, "source data must be a sequence of records")
	}
	data := make(render.Data, 0, len(rows))
	for i, r := range rows {
		switch row := r.(type) {
		case map[string]any:
			data = append(data, row)
		case *block.Attrs:
			rec := make(render.Row, row.Len())
			row.Range(func(k string, v any) bool {
				rec[k] = v
				return true
			})
			data = append(data, rec)
		default:
			return nil, errors.New(errors.ErrCodeSpec, "source record %d is not a mapping", i)
		}
	}
	return data, nil
}
