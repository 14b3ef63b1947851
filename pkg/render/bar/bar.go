// Package bar renders vertical bar charts.
package bar

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/matzehuels/vizdeck/pkg/render"
)

// DefaultHeight is the bar chart height (px) when no explicit height is
// configured.
const DefaultHeight = 320.0

const (
	padding    = 24.0
	labelSpace = 20.0
	barGap     = 8.0
)

// Render draws a bar chart into c. Required config: visualize.x and
// visualize.y field mappings. A palette is optional; bars fall back to a
// single neutral fill.
func Render(ctx context.Context, c *render.Container, data render.Data, cfg *render.Config) error {
	c.Clear()

	xField, err := cfg.RequireField("x")
	if err != nil {
		return err
	}
	yField, err := cfg.RequireField("y")
	if err != nil {
		return err
	}

	height := cfg.Height
	if height <= 0 {
		height = DefaultHeight
	}

	type bar struct {
		label string
		value float64
	}
	var (
		bars     []bar
		maxValue float64
	)
	for _, row := range data {
		v, ok := toFloat(row[yField])
		if !ok || v < 0 {
			continue
		}
		label := fmt.Sprintf("%v", row[xField])
		bars = append(bars, bar{label: label, value: v})
		if v > maxValue {
			maxValue = v
		}
	}

	c.SetHeight(height)
	if len(bars) == 0 || maxValue <= 0 {
		return nil
	}

	palette := cfg.Palette()
	plotW := c.Width() - 2*padding
	plotH := height - padding - labelSpace
	barW := (plotW - barGap*float64(len(bars)-1)) / float64(len(bars))

	for i, b := range bars {
		x := padding + float64(i)*(barW+barGap)
		h := b.value / maxValue * plotH
		y := padding + plotH - h

		fill := "#64748b"
		if len(palette) > 0 {
			fill = palette[i%len(palette)]
		}
		c.Printf(`  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="2" fill="%s"/>`+"\n",
			x, y, barW, h, fill)
		c.Printf(`  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="11" fill="#374151">%s</text>`+"\n",
			x+barW/2, padding+plotH+14, escape(b.label))
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
