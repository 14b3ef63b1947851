package render

import (
	"bytes"
	"fmt"
)

// Grid layout constants.
const (
	// GridColumns is the number of columns in the responsive grid.
	GridColumns = 12

	// DefaultColSpan is used when a chart block declares no layout.colSpan.
	DefaultColSpan = 12

	// MobileBreakpoint is the canvas width (px) below which every block
	// collapses to full width regardless of its colSpan.
	MobileBreakpoint = 640.0

	// CellGutter is the horizontal gap between adjacent cells (px).
	CellGutter = 16.0

	// RowGap is the vertical gap between grid rows (px).
	RowGap = 16.0
)

// ClampColSpan normalizes a colSpan attribute to [1, GridColumns].
// Zero and negative values fall back to the default full width.
func ClampColSpan(n int) int {
	if n <= 0 {
		return DefaultColSpan
	}
	if n > GridColumns {
		return GridColumns
	}
	return n
}

// CellWidth computes a cell's final width for a canvas of the given
// width. Below the mobile breakpoint the span is ignored and the cell
// takes the full canvas width.
func CellWidth(canvasWidth float64, colSpan int) float64 {
	span := ClampColSpan(colSpan)
	if canvasWidth < MobileBreakpoint {
		return canvasWidth
	}
	fraction := float64(span) / GridColumns
	width := canvasWidth*fraction - CellGutter*(1-fraction)
	if width < 0 {
		return canvasWidth * fraction
	}
	return width
}

// Cell is one placed grid slot: a container plus its span.
type Cell struct {
	Span      int
	Container *Container
}

// Grid arranges chart containers into a 12-column responsive flow. Cells
// are placed left to right and wrap to a new row when a row's spans
// exceed the column count; row height is the tallest cell in the row.
//
// The grid creates each cell's container (with its final width) before
// the cell's chart renders, so renderers can make adaptive layout
// decisions against real available space.
type Grid struct {
	width float64
	cells []*Cell
}

// NewGrid creates a grid for a canvas of the given width.
func NewGrid(canvasWidth float64) *Grid {
	return &Grid{width: canvasWidth}
}

// Width returns the canvas width.
func (g *Grid) Width() float64 {
	return g.width
}

// Place appends a cell spanning colSpan columns and returns it. The
// returned cell's container already knows its final width.
func (g *Grid) Place(colSpan int) *Cell {
	span := ClampColSpan(colSpan)
	cell := &Cell{
		Span:      span,
		Container: NewContainer(CellWidth(g.width, span)),
	}
	g.cells = append(g.cells, cell)
	return cell
}

// Cells returns the placed cells in document order.
func (g *Grid) Cells() []*Cell {
	return g.cells
}

// Compose assembles all cells into one SVG document and returns the
// markup plus the total canvas height.
func (g *Grid) Compose() ([]byte, float64) {
	type placed struct {
		cell *Cell
		x, y float64
	}

	var (
		out       []placed
		rowStart  int
		colsUsed  int
		y         float64
		rowHeight float64
	)

	flushRow := func() {
		if rowStart < len(out) {
			y += rowHeight + RowGap
		}
		rowStart = len(out)
		colsUsed = 0
		rowHeight = 0
	}

	mobile := g.width < MobileBreakpoint
	for _, cell := range g.cells {
		span := cell.Span
		if mobile {
			span = GridColumns
		}
		if colsUsed+span > GridColumns {
			flushRow()
		}
		x := g.width * float64(colsUsed) / GridColumns
		if colsUsed > 0 {
			x += CellGutter / 2
		}
		out = append(out, placed{cell: cell, x: x, y: y})
		colsUsed += span
		if h := cell.Container.Height(); h > rowHeight {
			rowHeight = h
		}
		if colsUsed >= GridColumns {
			flushRow()
		}
	}
	total := y
	if colsUsed > 0 {
		total += rowHeight
	} else if len(out) > 0 {
		// Last row was flushed; drop the trailing gap.
		total -= RowGap
	}
	if total < 0 {
		total = 0
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		g.width, total, g.width, total)
	for _, p := range out {
		fmt.Fprintf(&buf, `  <g transform="translate(%.1f,%.1f)">`+"\n", p.x, p.y)
		buf.Write(p.cell.Container.Bytes())
		buf.WriteString("  </g>\n")
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), total
}
