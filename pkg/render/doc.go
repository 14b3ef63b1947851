// Package render defines the chart renderer contract and the layout
// machinery shared by all chart types.
//
// # Renderer Contract
//
// A renderer is a function registered under a chart type name:
//
//	registry := render.NewRegistry()
//	registry.Register("pie", pie.Render)
//
// Every renderer must:
//   - clear its container before drawing
//   - return MISSING_REQUIRED_CONFIG when a required resolved attribute
//     (e.g. a color palette) is absent, rather than degrading silently
//   - confine all side effects to the provided container
//
// # Containers and the Grid
//
// The host owns a canvas of a given width. The grid compositor divides it
// into a 12-column grid; each chart block occupies layout.colSpan columns
// (default 12). Cell containers are created before their chart renders,
// so a renderer can query its final available width. Below the mobile
// breakpoint every block collapses to full width.
//
// # Dimension Estimation
//
// EstimateDimensions predicts a chart's size from its resolved spec
// before drawing, so the host can reserve layout space and avoid shift.
// It is a best-effort hint and never fails: malformed specs produce a
// documented fallback height.
package render
