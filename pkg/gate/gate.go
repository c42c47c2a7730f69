// Package gate bounds how many external lookups run at the same time.
package gate

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate limits concurrent operations to a fixed bound. No ordering guarantee is
// made among blocked callers; only the bound is a contract.
type Gate struct {
	sem *semaphore.Weighted
}

// New creates a gate allowing at most limit concurrent operations.
// A limit of zero (or less) disables the gate entirely.
func New(limit int64) *Gate {
	if limit <= 0 {
		return &Gate{}
	}
	return &Gate{sem: semaphore.NewWeighted(limit)}
}

// Acquire blocks until a slot is free or the context is done.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.sem == nil {
		return ctx.Err()
	}
	return g.sem.Acquire(ctx, 1)
}

// Release frees a slot acquired with Acquire.
func (g *Gate) Release() {
	if g.sem != nil {
		g.sem.Release(1)
	}
}
