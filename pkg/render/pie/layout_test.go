package pie

import (
	"math"
	"testing"
)

func TestComputeDeterministic(t *testing.T) {
	a := Compute(600, 400, 4)
	b := Compute(600, 400, 4)
	if a != b {
		t.Error("identical inputs must produce identical layouts")
	}
}

func TestComputeSideBySide(t *testing.T) {
	// W=600 meets MinSideWidth (480) and the remaining shape
	// (600-150-16=434, capped by H=400) meets MinShapeSize (220).
	l := Compute(600, 400, 4)

	if l.Placement != PlacementSide {
		t.Fatalf("placement = %s, want side", l.Placement)
	}
	wantShape := math.Min(600-LegendColumnWidth-LegendMargin, 400)
	if l.ShapeSize != wantShape {
		t.Errorf("ShapeSize = %v, want %v", l.ShapeSize, wantShape)
	}
	// The shape is centered horizontally regardless of placement.
	if l.ShapeCX != 300 {
		t.Errorf("ShapeCX = %v, want 300", l.ShapeCX)
	}
	if l.LegendHeight != 0 {
		t.Errorf("side placement should consume no vertical legend space, got %v", l.LegendHeight)
	}
}

func TestComputeBelowWidthThreshold(t *testing.T) {
	// Just under the minimum width: stacked even though the shape would
	// be large enough.
	l := Compute(MinSideWidth-1, 400, 4)
	if l.Placement != PlacementBelow {
		t.Fatalf("placement = %s, want below", l.Placement)
	}
}

func TestComputeBelowShapeThreshold(t *testing.T) {
	// Width passes but the shape left over next to the legend column
	// would be unreadably small.
	w := LegendColumnWidth + LegendMargin + MinShapeSize - 1
	if w < MinSideWidth {
		w = MinSideWidth
	}
	l := Compute(w, 400, 4)
	if l.Placement != PlacementBelow {
		t.Fatalf("placement = %s, want below", l.Placement)
	}
}

func TestComputeStackedRows(t *testing.T) {
	// W=300: itemsPerRow = floor((300-16)/140) = 2, rows = ceil(4/2) = 2.
	l := Compute(300, 400, 4)

	if l.Placement != PlacementBelow {
		t.Fatalf("placement = %s, want below", l.Placement)
	}
	if l.ItemsPerRow != 2 {
		t.Errorf("ItemsPerRow = %d, want 2", l.ItemsPerRow)
	}
	if l.Rows != 2 {
		t.Errorf("Rows = %d, want 2", l.Rows)
	}
	if l.LegendHeight != 2*LegendRowHeight {
		t.Errorf("LegendHeight = %v, want %v", l.LegendHeight, 2*LegendRowHeight)
	}

	// The shape budget shrinks by the legend block and the shape is
	// centered in the remainder.
	budget := 400 - l.LegendHeight
	if l.ShapeSize != math.Min(300, budget) {
		t.Errorf("ShapeSize = %v", l.ShapeSize)
	}
	if l.ShapeCY != budget/2 {
		t.Errorf("ShapeCY = %v, want %v", l.ShapeCY, budget/2)
	}
	if l.ShapeCX != 150 {
		t.Errorf("ShapeCX = %v, want horizontal center", l.ShapeCX)
	}
}

func TestComputeRowsTable(t *testing.T) {
	tests := []struct {
		name     string
		w        float64
		items    int
		wantRows int
	}{
		{"all items fit one row", 600, 3, 1},
		{"two rows", 300, 4, 2},
		{"one item per row minimum", 100, 3, 3},
		{"empty legend", 300, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Compute(tt.w, 400, tt.items)
			// Force stacked comparisons only for narrow cases; wide
			// containers may legitimately choose side placement.
			if l.Placement == PlacementBelow && l.Rows != tt.wantRows {
				t.Errorf("Rows = %d, want %d", l.Rows, tt.wantRows)
			}
		})
	}
}

func TestComputeNoLegendNeverSide(t *testing.T) {
	l := Compute(1200, 400, 0)
	if l.Placement != PlacementBelow {
		t.Error("an empty legend has nothing to place beside the shape")
	}
	if l.LegendHeight != 0 || l.Rows != 0 {
		t.Errorf("empty legend should consume no space: %+v", l)
	}
}

func TestComputeTinyContainer(t *testing.T) {
	// The legend can exceed the container; the shape budget clamps at 0
	// rather than going negative.
	l := Compute(100, 30, 10)
	if l.ShapeSize < 0 {
		t.Errorf("ShapeSize = %v, must not be negative", l.ShapeSize)
	}
}
