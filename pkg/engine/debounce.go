package engine

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is the settle window for bursts of edits.
const DefaultDebounceDelay = 250 * time.Millisecond

// Debouncer coalesces bursts of triggers into a single trailing-edge
// callback. Each trigger restarts the timer, so a burst of edits inside
// the delay window fires fn exactly once, after the burst settles.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fn    func()
}

// NewDebouncer creates a debouncer invoking fn after delay has elapsed
// without further triggers. A non-positive delay falls back to
// DefaultDebounceDelay.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules the callback, cancelling any pending one.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
