package render

// FallbackHeight is the safe height hint (px) returned when estimation
// fails or the chart type declares no default. Estimation is a
// best-effort layout reservation and never blocks a render.
const FallbackHeight = 320.0

// defaultHeights maps chart type names to their default heights (px),
// used when a chart declares no explicit height attribute.
var defaultHeights = map[string]float64{
	"pie":    360,
	"donut":  360,
	"bar":    320,
	"line":   320,
	"flow":   420,
	"params": 64,
}

// Dimensions is a pre-render size hint. Width is nil when the container
// width is not yet known.
type Dimensions struct {
	Width  *float64
	Height float64
}

// EstimateDimensions predicts a chart's rendered size from its resolved
// spec, before drawing, so the host can reserve layout space. When
// containerWidth is positive, the returned width is the chart's final
// grid cell width; otherwise width is nil.
//
// It never returns an error: an explicit height wins, then the per-type
// default, then FallbackHeight. Internal failures (e.g. a malformed
// style) also fall back rather than propagating.
func EstimateDimensions(cfg *Config, containerWidth float64) (dims Dimensions) {
	dims.Height = FallbackHeight
	defer func() {
		if recover() != nil {
			dims = Dimensions{Height: FallbackHeight}
		}
	}()

	if cfg == nil {
		return dims
	}

	if containerWidth > 0 {
		w := CellWidth(containerWidth, cfg.ColSpan)
		dims.Width = &w
	}

	if cfg.Height > 0 {
		dims.Height = cfg.Height
		return dims
	}
	if h, ok := defaultHeights[cfg.Type]; ok {
		dims.Height = h
	}
	return dims
}
