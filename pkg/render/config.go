package render

import (
	"encoding/json"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/cache"
	"github.com/matzehuels/vizdeck/pkg/errors"
)

// Row is one record of chart data.
type Row = map[string]any

// Data is the resolved tabular data a chart draws from.
type Data []Row

// Config is a chart block's resolved spec: the merge of the block's own
// attributes with the named source, style, config, and params entries it
// references. It is read-only from a renderer's perspective.
type Config struct {
	// Type is the chart type name from visualize.type.
	Type string

	// Attrs holds the chart block's own attributes.
	Attrs *block.Attrs

	// Data is the resolved source data, nil when the block references no
	// source.
	Data Data

	// Style holds the resolved named style attributes, nil if none.
	Style *block.Attrs

	// Settings holds the resolved named config attributes, nil if none.
	Settings *block.Attrs

	// Params is a snapshot of parameter values visible to this chart.
	Params map[string]any

	// ColSpan is the grid width of the block, clamped to [1, 12].
	ColSpan int

	// Height is the explicit height attribute, 0 when unset.
	Height float64
}

// Field returns the column mapping under visualize.<key> ("" if absent).
func (c *Config) Field(key string) string {
	if viz := c.Attrs.Child("visualize"); viz != nil {
		return viz.String(key)
	}
	return ""
}

// RequireField returns the column mapping under visualize.<key>, or a
// MISSING_REQUIRED_CONFIG error naming the attribute.
func (c *Config) RequireField(key string) (string, error) {
	if f := c.Field(key); f != "" {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeMissingRequiredConfig, "chart %q requires visualize.%s", c.Type, key)
}

// Palette returns the resolved color palette from the style, or nil when
// no style (or no palette) is present.
func (c *Config) Palette() []string {
	if c.Style == nil {
		return nil
	}
	raw, ok := c.Style.Get("palette")
	if !ok {
		return nil
	}
	seq, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(seq))
	for _, v := range seq {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// RequirePalette returns the resolved palette, or MISSING_REQUIRED_CONFIG
// when the chart has no usable palette.
func (c *Config) RequirePalette() ([]string, error) {
	if p := c.Palette(); len(p) > 0 {
		return p, nil
	}
	return nil, errors.New(errors.ErrCodeMissingRequiredConfig, "chart %q requires a resolved color palette", c.Type)
}

// Setting returns a value from the resolved named config, falling back to
// the chart block's own attributes.
func (c *Config) Setting(key string) (any, bool) {
	if c.Settings != nil {
		if v, ok := c.Settings.Get(key); ok {
			return v, true
		}
	}
	return c.Attrs.Get(key)
}

// Hash returns a stable fingerprint of the resolved spec, used as the
// artifact cache key component.
func (c *Config) Hash() string {
	data, _ := json.Marshal(struct {
		Type     string         `json:"type"`
		Attrs    *block.Attrs   `json:"attrs"`
		Data     Data           `json:"data"`
		Style    *block.Attrs   `json:"style"`
		Settings *block.Attrs   `json:"settings"`
		Params   map[string]any `json:"params"`
		ColSpan  int            `json:"col_span"`
	}{c.Type, c.Attrs, c.Data, c.Style, c.Settings, c.Params, c.ColSpan})
	return cache.Hash(data)
}
