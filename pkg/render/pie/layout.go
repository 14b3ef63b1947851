package pie

import "math"

// Layout constants for adaptive legend placement. The same rule serves
// any chart whose auxiliary annotation region competes with the primary
// draw area for space.
const (
	// MinSideWidth is the minimum container width (px) required before a
	// legend may be placed beside the primary shape.
	MinSideWidth = 480.0

	// MinShapeSize is the minimum readable size (px) the primary shape
	// must retain for the side-by-side layout to be chosen.
	MinShapeSize = 220.0

	// LegendColumnWidth is the fixed column width (px) reserved for a
	// side-placed legend.
	LegendColumnWidth = 150.0

	// LegendMargin is the gap (px) between the primary shape and the
	// legend region, and the horizontal inset for stacked legend rows.
	LegendMargin = 16.0

	// LegendItemWidth is the width (px) of one legend item in a stacked
	// legend row.
	LegendItemWidth = 140.0

	// LegendRowHeight is the height (px) of one stacked legend row.
	LegendRowHeight = 24.0
)

// Placement selects where the legend sits relative to the primary shape.
type Placement int

const (
	// PlacementSide puts the legend in a fixed-width column beside the
	// primary shape.
	PlacementSide Placement = iota

	// PlacementBelow stacks legend rows underneath the primary shape.
	PlacementBelow
)

func (p Placement) String() string {
	if p == PlacementSide {
		return "side"
	}
	return "below"
}

// Layout is the computed geometry for one chart render.
type Layout struct {
	Placement Placement

	// ShapeSize is the diameter budget of the primary shape.
	ShapeSize float64

	// ShapeCX, ShapeCY is the primary shape's center point.
	ShapeCX, ShapeCY float64

	// ItemsPerRow and Rows describe the stacked legend (zero for side
	// placement or an empty legend).
	ItemsPerRow int
	Rows        int

	// LegendHeight is the vertical space consumed by a stacked legend.
	LegendHeight float64
}

// Compute decides legend placement for a container of width w and height
// h holding a legend of items entries. It is a pure function of its
// inputs: identical arguments always produce identical layouts.
//
// The side-by-side layout is chosen iff w meets MinSideWidth and the
// resulting primary shape still meets MinShapeSize; otherwise the legend
// stacks below, shrinking the shape's height budget by the legend block.
// The primary shape is always centered horizontally in w.
func Compute(w, h float64, items int) Layout {
	if items > 0 {
		sideShape := math.Min(w-LegendColumnWidth-LegendMargin, h)
		if w >= MinSideWidth && sideShape >= MinShapeSize {
			return Layout{
				Placement: PlacementSide,
				ShapeSize: sideShape,
				ShapeCX:   w / 2,
				ShapeCY:   h / 2,
			}
		}
	}

	itemsPerRow := int(math.Floor((w - LegendMargin) / LegendItemWidth))
	if itemsPerRow < 1 {
		itemsPerRow = 1
	}
	rows := 0
	if items > 0 {
		rows = int(math.Ceil(float64(items) / float64(itemsPerRow)))
	}
	legendHeight := float64(rows) * LegendRowHeight

	budget := h - legendHeight
	if budget < 0 {
		budget = 0
	}
	shape := math.Min(w, budget)

	return Layout{
		Placement:    PlacementBelow,
		ShapeSize:    shape,
		ShapeCX:      w / 2,
		ShapeCY:      budget / 2,
		ItemsPerRow:  itemsPerRow,
		Rows:         rows,
		LegendHeight: legendHeight,
	}
}
