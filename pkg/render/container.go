package render

import (
	"bytes"
	"fmt"
	"sync"
)

// Container is the drawing surface handed to a renderer: one cell of the
// host-owned canvas. Its width is fixed before the renderer runs, so
// adaptive layout decisions can be made against the final available
// space. Renderers write SVG fragment markup into it.
//
// Container is safe for concurrent use; a parameter update may replace a
// cell's content while the compositor reads siblings.
type Container struct {
	mu     sync.Mutex
	width  float64
	height float64
	buf    bytes.Buffer
}

// NewContainer creates a container with the given fixed width.
func NewContainer(width float64) *Container {
	return &Container{width: width}
}

// Width returns the final available width of the container.
func (c *Container) Width() float64 {
	return c.width
}

// Height returns the content height set by the renderer.
func (c *Container) Height() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// SetHeight records the rendered content height, used by the compositor
// to stack grid rows.
func (c *Container) SetHeight(h float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = h
}

// Clear discards all content. Renderers must call this before drawing.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	c.height = 0
}

// WriteString appends raw markup to the container.
func (c *Container) WriteString(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.WriteString(s)
}

// Printf appends formatted markup to the container.
func (c *Container) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(&c.buf, format, args...)
}

// Bytes returns a copy of the container's content.
func (c *Container) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, c.buf.Len())
	copy(out, c.buf.Bytes())
	return out
}

// Len returns the content length in bytes.
func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

// Replace atomically swaps the container's content and height. The
// engine uses this to apply a finished render in one step, so a stale
// render can be discarded without leaving partial output behind.
func (c *Container) Replace(content []byte, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Reset()
	c.buf.Write(content)
	c.height = height
}
