// Package debounce coalesces bursts of calls into a single deferred call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs a callback once no new [Debouncer.Call] has been made for
// the configured delay. Each Call replaces the pending one.
//
// All methods are safe for concurrent use. The callback never runs
// concurrently with itself.
type Debouncer struct {
	timer    *time.Timer
	callback func()
	delay    time.Duration
	// Incremented on every schedule or cancel so stale timers do nothing.
	seq     uint64
	mu      sync.Mutex
	runMu   sync.Mutex
	pending bool
}

// New creates a new [Debouncer].
func New(delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
	}
}

// Call schedules the callback after the delay, replacing any pending call.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(seq)
	})
}

func (d *Debouncer) fire(seq uint64) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.Lock()
	if !d.pending || d.seq != seq {
		d.mu.Unlock()
		return
	}

	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.callback()
}

// Flush runs the callback now if a call is pending, and cancels the timer.
// It reports whether the callback ran.
func (d *Debouncer) Flush() bool {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.mu.Lock()
	pending := d.pending
	d.stopLocked()
	d.mu.Unlock()

	if pending {
		d.callback()
	}

	return pending
}

// Cancel drops any pending call. It reports whether a call was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := d.pending
	d.stopLocked()

	return pending
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.pending
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	d.seq++
	d.pending = false
}
