// Package flow renders node-link flow diagrams through Graphviz.
//
// Rows of the resolved source data describe edges (from/to fields); the
// renderer builds a DOT graph and rasterizes it to SVG with Graphviz,
// then embeds the result in the chart's container. It demonstrates a
// renderer plugin backed by an external drawing engine rather than
// hand-written SVG.
package flow

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/vizdeck/pkg/errors"
	"github.com/matzehuels/vizdeck/pkg/render"
)

// DefaultHeight is the flow chart height (px) when no explicit height is
// configured.
const DefaultHeight = 420.0

// Render draws a node-link diagram into c. Required config: visualize.from
// and visualize.to field mappings naming the edge columns.
func Render(ctx context.Context, c *render.Container, data render.Data, cfg *render.Config) error {
	c.Clear()

	fromField, err := cfg.RequireField("from")
	if err != nil {
		return err
	}
	toField, err := cfg.RequireField("to")
	if err != nil {
		return err
	}

	height := cfg.Height
	if height <= 0 {
		height = DefaultHeight
	}

	dot := ToDOT(data, fromField, toField)
	svg, err := renderSVG(ctx, dot)
	if err != nil {
		return errors.Wrap(errors.ErrCodeRenderError, err, "graphviz render failed")
	}

	c.Printf(`  <svg x="0" y="0" width="%.1f" height="%.1f" viewBox="0 0 %.1f %.1f" preserveAspectRatio="xMidYMid meet">`+"\n",
		c.Width(), height, c.Width(), height)
	c.WriteString(stripXMLHeader(svg))
	c.WriteString("  </svg>\n")
	c.SetHeight(height)
	return nil
}

// ToDOT converts edge rows to Graphviz DOT format. Nodes are emitted in
// first-seen order so output is deterministic for identical data.
func ToDOT(data render.Data, fromField, toField string) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	seen := make(map[string]bool)
	var edges [][2]string
	for _, row := range data {
		from := fmt.Sprintf("%v", row[fromField])
		to := fmt.Sprintf("%v", row[toField])
		if from == "" || to == "" || from == "<nil>" || to == "<nil>" {
			continue
		}
		for _, id := range []string{from, to} {
			if !seen[id] {
				seen[id] = true
				fmt.Fprintf(&buf, "  %q;\n", id)
			}
		}
		edges = append(edges, [2]string{from, to})
	}

	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e[0], e[1])
	}
	buf.WriteString("}\n")
	return buf.String()
}

func renderSVG(ctx context.Context, dot string) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return "", fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.String()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites Graphviz's root SVG tag so the embedded
// document scales inside the cell viewport.
func normalizeViewBox(svg string) string {
	match := viewBoxRe.FindStringSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(match[3], 64)
	h, _ := strconv.ParseFloat(match[4], 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="100%%" height="100%%">`, w, h)
	return svgTagRe.ReplaceAllString(svg, newSvg)
}

func stripXMLHeader(svg string) string {
	if i := strings.Index(svg, "<svg"); i > 0 {
		return svg[i:]
	}
	return svg
}
