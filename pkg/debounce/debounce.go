// Package debounce collapses bursts of recomputation requests into at most
// one in-flight unit of work plus one coalesced pending unit.
package debounce

import (
	"sync"
	"time"
)

type state int

const (
	idle state = iota
	running
	runningPending
)

// Trigger wraps a unit of work with "leading-edge optional delay, trailing
// coalescing" semantics: the first call of a burst always runs (immediately or
// after wait), calls arriving while a unit is in flight overwrite a single
// pending slot, and the most recent pending call runs after the in-flight unit
// completes, optionally separated by delay. This is not a work queue: of N
// burst calls, at most the first and the last ever execute.
type Trigger[T any] struct {
	fn    func(T)
	wait  time.Duration
	delay time.Duration

	mu      sync.Mutex
	st      state
	pending T
	sleep   func(time.Duration)
}

// New creates a trigger around fn. wait delays the first invocation of a
// fresh burst; delay separates an invocation from its coalesced successor.
// Both may be zero.
func New[T any](fn func(T), wait, delay time.Duration) *Trigger[T] {
	return &Trigger[T]{fn: fn, wait: wait, delay: delay, sleep: time.Sleep}
}

// Call requests an invocation of the wrapped unit with v. It never blocks:
// the unit runs on its own goroutine.
func (t *Trigger[T]) Call(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.st == idle {
		t.st = running
		go t.run(v)
		return
	}
	t.pending = v
	t.st = runningPending
}

// run executes the unit, then re-checks for a coalesced pending call in a
// loop rather than by recursive self-invocation.
func (t *Trigger[T]) run(v T) {
	if t.wait > 0 {
		t.sleep(t.wait)
	}
	for {
		t.fn(v)

		t.mu.Lock()
		if t.st != runningPending {
			t.st = idle
			t.mu.Unlock()
			return
		}
		v = t.pending
		var zero T
		t.pending = zero
		t.st = running
		t.mu.Unlock()

		if t.delay > 0 {
			t.sleep(t.delay)
		}
	}
}
