// Package schedule provides cancellable deferred callbacks for the overlay
// engine. The engine is single-threaded: every callback must run on the host's
// UI loop, so the production scheduler hops back onto it through a dispatch
// function instead of running callbacks on timer goroutines.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// Timer is a handle to a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call prevented it
	// from running.
	Stop() bool
}

// Scheduler arms callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Dispatcher is a Scheduler whose callbacks are delivered through a dispatch
// function, typically one that posts a message to the UI loop. A timer
// stopped after it fired but before its dispatched callback ran never runs.
type Dispatcher struct {
	mu       sync.Mutex
	dispatch func(func())
	pending  []func()
}

// NewDispatcher creates a dispatcher. dispatch may be nil and bound later;
// callbacks that fire before binding are queued and flushed by Bind.
func NewDispatcher(dispatch func(func())) *Dispatcher {
	return &Dispatcher{dispatch: dispatch}
}

// Bind sets the dispatch function and flushes queued callbacks into it.
func (d *Dispatcher) Bind(dispatch func(func())) {
	d.mu.Lock()
	d.dispatch = dispatch
	queued := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range queued {
		dispatch(fn)
	}
}

type dispatchTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *dispatchTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	t.timer.Stop()
	return true
}

// AfterFunc arms fn to run on the UI loop after d.
func (d *Dispatcher) AfterFunc(dur time.Duration, fn func()) Timer {
	t := &dispatchTimer{}
	guarded := func() {
		if t.stopped.Swap(true) {
			return
		}
		fn()
	}
	t.timer = time.AfterFunc(dur, func() {
		d.mu.Lock()
		dispatch := d.dispatch
		if dispatch == nil {
			d.pending = append(d.pending, guarded)
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		dispatch(guarded)
	})
	return t
}
