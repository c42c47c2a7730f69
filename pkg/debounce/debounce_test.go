//go:build unit
// +build unit

package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recorder blocks each invocation until released, so tests control exactly
// when the in-flight unit completes.
type recorder struct {
	mu      sync.Mutex
	calls   []int
	started chan int
	release chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		started: make(chan int, 16),
		release: make(chan struct{}),
	}
}

func (r *recorder) fn(v int) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
	r.started <- v
	<-r.release
}

func (r *recorder) seen() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}

func waitFor(t *testing.T, ch chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for invocation")
		return 0
	}
}

func TestTrigger_BurstRunsFirstAndLastOnly(t *testing.T) {
	r := newRecorder()
	tr := New(r.fn, 0, 0)

	tr.Call(1)
	require.Equal(t, 1, waitFor(t, r.started))

	// These arrive while 1 is in flight: only the last one survives.
	tr.Call(2)
	tr.Call(3)
	tr.Call(4)

	r.release <- struct{}{}
	require.Equal(t, 4, waitFor(t, r.started))
	r.release <- struct{}{}

	require.Eventually(t, func() bool {
		return len(r.seen()) == 2
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, []int{1, 4}, r.seen())
}

func TestTrigger_AtMostOneInFlight(t *testing.T) {
	r := newRecorder()
	tr := New(r.fn, 0, 0)

	tr.Call(1)
	require.Equal(t, 1, waitFor(t, r.started))
	tr.Call(2)

	// While 1 is blocked, 2 must not have started.
	select {
	case v := <-r.started:
		t.Fatalf("unexpected concurrent invocation: %d", v)
	case <-time.After(50 * time.Millisecond):
	}

	r.release <- struct{}{}
	require.Equal(t, 2, waitFor(t, r.started))
	r.release <- struct{}{}
}

func TestTrigger_IdleAgainAfterCompletion(t *testing.T) {
	r := newRecorder()
	tr := New(r.fn, 0, 0)

	tr.Call(1)
	waitFor(t, r.started)
	r.release <- struct{}{}

	require.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return tr.st == idle
	}, 5*time.Second, 10*time.Millisecond)

	// A fresh call after idling runs normally.
	tr.Call(5)
	require.Equal(t, 5, waitFor(t, r.started))
	r.release <- struct{}{}
}

func TestTrigger_WaitDelaysLeadingEdge(t *testing.T) {
	r := newRecorder()
	tr := New(r.fn, 30*time.Millisecond, 0)

	var slept []time.Duration
	var mu sync.Mutex
	tr.sleep = func(d time.Duration) {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
	}

	tr.Call(1)
	require.Equal(t, 1, waitFor(t, r.started))
	r.release <- struct{}{}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []time.Duration{30 * time.Millisecond}, slept)
}

func TestTrigger_DelaySeparatesPendingRun(t *testing.T) {
	r := newRecorder()
	tr := New(r.fn, 0, 20*time.Millisecond)

	var slept []time.Duration
	var mu sync.Mutex
	tr.sleep = func(d time.Duration) {
		mu.Lock()
		slept = append(slept, d)
		mu.Unlock()
	}

	tr.Call(1)
	waitFor(t, r.started)
	tr.Call(2)
	r.release <- struct{}{}
	require.Equal(t, 2, waitFor(t, r.started))
	r.release <- struct{}{}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []time.Duration{20 * time.Millisecond}, slept)
}
