// Package line renders line charts.
package line

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/vizdeck/pkg/render"
)

// DefaultHeight is the line chart height (px) when no explicit height is
// configured.
const DefaultHeight = 320.0

const (
	padding    = 24.0
	pointR     = 3.0
	labelSpace = 20.0
)

// Render draws a line chart into c. Required config: visualize.x and
// visualize.y field mappings. Points are plotted in row order along the
// x axis; the y axis scales to the data range.
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

	type point struct {
		label string
		value float64
	}
	var (
		points     []point
		minV, maxV float64
	)
	for _, row := range data {
		v, ok := toFloat(row[yField])
		if !ok {
			continue
		}
		if len(points) == 0 || v < minV {
			minV = v
		}
		if len(points) == 0 || v > maxV {
			maxV = v
		}
		points = append(points, point{label: fmt.Sprintf("%v", row[xField]), value: v})
	}

	c.SetHeight(height)
	if len(points) < 2 {
		return nil
	}

	stroke := "#64748b"
	if palette := cfg.Palette(); len(palette) > 0 {
		stroke = palette[0]
	}

	plotW := c.Width() - 2*padding
	plotH := height - padding - labelSpace
	span := maxV - minV
	if span == 0 {
		span = 1
	}
	step := plotW / float64(len(points)-1)

	coords := make([][2]float64, len(points))
	var path strings.Builder
	for i, p := range points {
		x := padding + float64(i)*step
		y := padding + plotH - (p.value-minV)/span*plotH
		coords[i] = [2]float64{x, y}
		if i == 0 {
			fmt.Fprintf(&path, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&path, " %.1f,%.1f", x, y)
		}
	}

	c.Printf(`  <polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
		path.String(), stroke)
	for i, xy := range coords {
		c.Printf(`  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n",
			xy[0], xy[1], pointR, stroke)
		c.Printf(`  <text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="11" fill="#374151">%s</text>`+"\n",
			xy[0], padding+plotH+14, escape(points[i].label))
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
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
