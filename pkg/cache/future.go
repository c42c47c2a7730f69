package cache

import "context"

// Future is a write-once container for the result of an asynchronous fetch.
// Every reader waiting on the same Future observes the same eventual value or
// the same eventual failure, which is what makes a cache entry safe to share
// between concurrent callers.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// NewFuture creates an unresolved Future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Complete resolves the future with a value. It must be called at most once,
// by the goroutine that owns the fetch.
func (f *Future[T]) Complete(value T) {
	f.value = value
	close(f.done)
}

// Fail resolves the future with an error. It must be called at most once,
// by the goroutine that owns the fetch.
func (f *Future[T]) Fail(err error) {
	f.err = err
	close(f.done)
}

// Wait blocks until the future is resolved or the context is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
