package persist

import (
	"sync"
	"time"
)

// DefaultSaveDelay is the quiet period before a burst of edits is saved.
const DefaultSaveDelay = 500 * time.Millisecond

// Debouncer coalesces rapid triggers into one call of fn. Every Trigger
// cancels the pending call and restarts the delay; the value passed to the
// last Trigger wins.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	value   T
}

// NewDebouncer creates a debouncer that calls fn delay after the last Trigger.
func NewDebouncer[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	if fn == nil {
		panic("persist.NewDebouncer: fn is nil")
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Trigger schedules fn(v), replacing any call that has not run yet.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.value = v
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush runs the pending call immediately on the calling goroutine. It
// returns false when nothing was pending.
func (d *Debouncer[T]) Flush() bool {
	v, ok := d.take(0)
	if !ok {
		return false
	}
	d.fn(v)
	return true
}

// Stop drops the pending call, if any, and reports whether one was dropped.
func (d *Debouncer[T]) Stop() bool {
	_, ok := d.take(0)
	return ok
}

func (d *Debouncer[T]) fire(gen uint64) {
	v, ok := d.take(gen)
	if !ok {
		return
	}
	d.fn(v)
}

// take claims the pending value. gen 0 claims whatever is pending; a timer
// passes its own generation so a superseded timer does nothing.
func (d *Debouncer[T]) take(gen uint64) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var zero T
	if !d.pending || (gen != 0 && gen != d.gen) {
		return zero, false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	v := d.value
	d.value = zero
	d.pending = false
	return v, true
}
