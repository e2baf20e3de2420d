// Package clock abstracts timer scheduling so debounce state machines can be
// driven by a manual clock in tests.
package clock

import (
	"sync"
	"time"
)

// Timer is a pending callback returned by a Scheduler.
type Timer interface {
	// Stop cancels the callback. Returns false if it already fired or was
	// already stopped.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Real schedules on the runtime timer heap via time.AfterFunc.
// Callbacks run on their own goroutine.
type Real struct{}

// AfterFunc implements Scheduler.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer owns at most one pending callback. Every Schedule cancels the
// previous callback and starts a new delay, so the callback only runs once
// no Schedule has happened for the full delay.
//
// A callback whose timer fired concurrently with a later Schedule or Cancel
// is suppressed by a generation check, so Stop races never double-fire.
//
// Thread-safety: all methods are safe for concurrent use.
type Debouncer struct {
	sched Scheduler

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// NewDebouncer returns a Debouncer driven by sched. A nil sched uses Real.
func NewDebouncer(sched Scheduler) *Debouncer {
	if sched == nil {
		sched = Real{}
	}
	return &Debouncer{sched: sched}
}

// Schedule cancels any pending callback and runs f after delay.
func (d *Debouncer) Schedule(delay time.Duration, f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.timer = d.sched.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		f()
	})
}

// Cancel drops the pending callback. Returns true if one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := d.timer != nil
	d.stopLocked()
	d.gen++
	return pending
}

// Pending reports whether a callback is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
