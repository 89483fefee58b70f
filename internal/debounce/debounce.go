// Package debounce collapses bursts of calls into one trailing call.
//
// Each Debouncer belongs to exactly one call site: sharing an instance between
// unrelated callers makes them cancel each other's pending work.
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer used by Debouncer.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules with time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

// Debouncer delays fn until wait has passed without another Call.
// Only the argument of the last call in a burst reaches fn.
type Debouncer[T any] struct {
	wait      time.Duration
	fn        func(T)
	scheduler Scheduler

	mu    sync.Mutex
	timer Timer
	seq   uint64
}

// New wraps fn. A nil scheduler uses RealScheduler.
func New[T any](wait time.Duration, fn func(T), scheduler Scheduler) *Debouncer[T] {
	if scheduler == nil {
		scheduler = RealScheduler
	}
	return &Debouncer[T]{
		wait:      wait,
		fn:        fn,
		scheduler: scheduler,
	}
}

// Call cancels any pending invocation and schedules fn(arg) after the quiet period.
func (d *Debouncer[T]) Call(arg T) {
	if d == nil || d.fn == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = d.scheduler.AfterFunc(d.wait, func() {
		d.fire(seq, arg)
	})
}

// Cancel drops the pending invocation, if any, and reports whether one was pending.
func (d *Debouncer[T]) Cancel() bool {
	if d == nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.seq++
	return true
}

// Pending reports whether an invocation is scheduled and has not fired yet.
func (d *Debouncer[T]) Pending() bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer[T]) fire(seq uint64, arg T) {
	d.mu.Lock()
	// A timer whose Stop lost the race against expiry still runs; seq filters it out.
	if seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn(arg)
}
