// Package pie renders pie charts with adaptive legend placement.
//
// The legend competes with the pie itself for container space: wide
// containers put it in a fixed column beside the chart, narrow ones stack
// it in rows below, shrinking the pie's height budget. The placement rule
// lives in Compute and is a deterministic pure function of the container
// box and legend size.
package pie

import (
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/vizdeck/pkg/render"
)

// DefaultHeight is the pie chart height (px) when no explicit height is
// configured.
const DefaultHeight = 360.0

// donutHoleRatio is the hole diameter relative to the shape size.
const donutHoleRatio = 0.55

type slice struct {
	label string
	value float64
	color string
}

// Render draws a pie chart into c. Required config: a visualize.value
// field mapping and a resolved color palette. The optional
// visualize.label mapping defaults to "label".
func Render(ctx context.Context, c *render.Container, data render.Data, cfg *render.Config) error {
	return renderPie(c, data, cfg, false)
}

// RenderDonut draws a pie chart with a hollow center. Config contract
// matches Render.
func RenderDonut(ctx context.Context, c *render.Container, data render.Data, cfg *render.Config) error {
	return renderPie(c, data, cfg, true)
}

func renderPie(c *render.Container, data render.Data, cfg *render.Config, donut bool) error {
	c.Clear()

	valueField, err := cfg.RequireField("value")
	if err != nil {
		return err
	}
	palette, err := cfg.RequirePalette()
	if err != nil {
		return err
	}
	labelField := cfg.Field("label")
	if labelField == "" {
		labelField = "label"
	}

	slices, total := collect(data, valueField, labelField, palette)

	height := cfg.Height
	if height <= 0 {
		height = DefaultHeight
	}
	layout := Compute(c.Width(), height, len(slices))

	drawShape(c, layout, slices, total)
	if donut && layout.ShapeSize > 0 && len(slices) > 0 {
		c.Printf(`  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="#ffffff"/>`+"\n",
			layout.ShapeCX, layout.ShapeCY, layout.ShapeSize/2*donutHoleRatio)
	}
	drawLegend(c, layout, slices, height)

	c.SetHeight(height)
	return nil
}

func collect(data render.Data, valueField, labelField string, palette []string) ([]slice, float64) {
	var (
		out   []slice
		total float64
	)
	for i, row := range data {
		v, ok := toFloat(row[valueField])
		if !ok || v <= 0 {
			continue
		}
		label, _ := row[labelField].(string)
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		out = append(out, slice{
			label: label,
			value: v,
			color: palette[len(out)%len(palette)],
		})
		total += v
	}
	return out, total
}

func drawShape(c *render.Container, l Layout, slices []slice, total float64) {
	if len(slices) == 0 || total <= 0 || l.ShapeSize <= 0 {
		return
	}
	r := l.ShapeSize / 2
	cx, cy := l.ShapeCX, l.ShapeCY

	if len(slices) == 1 {
		c.Printf(`  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>`+"\n", cx, cy, r, slices[0].color)
		return
	}

	angle := -math.Pi / 2 // start at 12 o'clock
	for _, s := range slices {
		sweep := s.value / total * 2 * math.Pi
		x1, y1 := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
		angle += sweep
		x2, y2 := cx+r*math.Cos(angle), cy+r*math.Sin(angle)

		large := 0
		if sweep > math.Pi {
			large = 1
		}
		c.Printf(`  <path d="M%.1f,%.1f L%.1f,%.1f A%.1f,%.1f 0 %d 1 %.1f,%.1f Z" fill="%s"/>`+"\n",
			cx, cy, x1, y1, r, r, large, x2, y2, s.color)
	}
}

func drawLegend(c *render.Container, l Layout, slices []slice, height float64) {
	if len(slices) == 0 {
		return
	}
	switch l.Placement {
	case PlacementSide:
		x := c.Width() - LegendColumnWidth
		y := height/2 - float64(len(slices))*LegendRowHeight/2
		for i, s := range slices {
			drawLegendItem(c, x, y+float64(i)*LegendRowHeight, s)
		}
	case PlacementBelow:
		top := height - l.LegendHeight
		for i, s := range slices {
			row, col := i/l.ItemsPerRow, i%l.ItemsPerRow
			x := LegendMargin + float64(col)*LegendItemWidth
			y := top + float64(row)*LegendRowHeight
			drawLegendItem(c, x, y, s)
		}
	}
}

func drawLegendItem(c *render.Container, x, y float64, s slice) {
	c.Printf(`  <rect x="%.1f" y="%.1f" width="12" height="12" rx="2" fill="%s"/>`+"\n", x, y+5, s.color)
	c.Printf(`  <text x="%.1f" y="%.1f" font-family="sans-serif" font-size="12" fill="#374151">%s</text>`+"\n",
		x+18, y+15, escape(s.label))
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
