package sync

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is the delay applied to coalesced writes.
const DefaultDebounceDelay = 1000 * time.Millisecond

// Debouncer coalesces rapid calls into a single deferred one. Each Call
// cancels the previous pending function and schedules the new one, so
// when the delay elapses only the latest call runs. Superseded calls are
// discarded, never queued.
//
// A pending call is lost if the process ends before the delay elapses and
// nobody invokes Flush. Call sites deliberately do not flush on teardown,
// matching the editing sessions this serves.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
}

// NewDebouncer returns a debouncer with the given delay, defaulting to
// DefaultDebounceDelay when the delay is not positive.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{delay: delay}
}

// Call schedules fn to run after the delay, replacing any pending call.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Flush runs the pending call immediately, if any.
func (d *Debouncer) Flush() {
	d.fire()
}

// Stop cancels the pending call without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}
