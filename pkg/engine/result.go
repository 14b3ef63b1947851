package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/vizdeck/pkg/block"
	"github.com/matzehuels/vizdeck/pkg/errors"
)

// BlockError describes one isolated block failure. Failures never abort
// the surrounding document render.
type BlockError struct {
	Code       errors.Code `json:"code"`
	Message    string      `json:"message"`
	BlockIndex int         `json:"block_index"`
}

// BlockResult is the outcome of rendering one visual block.
type BlockResult struct {
	// Handle identifies this block's output slot for the host.
	Handle uuid.UUID `json:"handle"`

	// Index is the block's position in the document.
	Index int `json:"index"`

	// Kind is the resolved block kind.
	Kind block.Kind `json:"kind"`

	// Type is the chart type name, empty for params blocks.
	Type string `json:"type,omitempty"`

	// Width and Height are the block's final dimensions.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// RenderTime is how long the block took to render.
	RenderTime time.Duration `json:"render_time"`

	// Err is the block's failure, nil on success. Failed blocks show an
	// inline error box in the composed output.
	Err error `json:"-"`

	// CacheHit reports whether the block's artifact came from cache.
	CacheHit bool `json:"cache_hit"`
}

// Result contains the outputs of one document render.
type Result struct {
	// SVG is the composed document output.
	SVG []byte

	// Width and Height are the composed canvas dimensions.
	Width  float64
	Height float64

	// Blocks holds per-block outcomes for visual blocks, in document
	// order.
	Blocks []BlockResult

	// Errors collects every isolated block failure from both passes.
	Errors []BlockError

	// Stats contains timing information.
	Stats Stats
}

// Stats contains render execution statistics.
type Stats struct {
	Registered   int // entries written in the registration pass
	Rendered     int // visual blocks rendered
	RegisterTime time.Duration
	RenderTime   time.Duration
}

// Failed reports whether any block failed.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}
