// Package cache provides a process-scoped TTL cache of in-flight and
// completed fetch results. Entries hold a shared Future so that concurrent
// requests for the same key are de-duplicated into a single fetch. There is
// no eviction goroutine: validity is checked lazily on read, and entries are
// always replaced whole, never mutated in place.
package cache

import (
	"sync"
	"time"
)

// Entry associates a shared fetch future with its creation time.
type Entry[T any] struct {
	Future    *Future[T]
	CreatedAt time.Time
}

// Cache is a TTL cache keyed by K. The zero value is not usable; use New.
type Cache[K comparable, T any] struct {
	mu      sync.Mutex
	entries map[K]Entry[T]
	now     func() time.Time
}

// New creates an empty cache.
func New[K comparable, T any]() *Cache[K, T] {
	return &Cache[K, T]{
		entries: make(map[K]Entry[T]),
		now:     time.Now,
	}
}

// Get returns the entry for key, valid or not.
func (c *Cache[K, T]) Get(key K) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Set stores a new entry for key, replacing any previous one.
func (c *Cache[K, T]) Set(key K, f *Future[T]) Entry[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := Entry[T]{Future: f, CreatedAt: c.now()}
	c.entries[key] = e
	return e
}

// GetOrCreate returns the valid entry for key, or atomically installs a fresh
// one. The second return value reports whether a new entry was created, in
// which case the caller owns resolving its future. An expired entry is
// discarded here, never reused.
func (c *Cache[K, T]) GetOrCreate(key K, ttl time.Duration) (Entry[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.CreatedAt) < ttl {
		return e, false
	}
	e := Entry[T]{Future: NewFuture[T](), CreatedAt: c.now()}
	c.entries[key] = e
	return e, true
}

// Valid reports whether the entry is still fresh under the given TTL.
func (c *Cache[K, T]) Valid(e Entry[T], ttl time.Duration) bool {
	return c.now().Sub(e.CreatedAt) < ttl
}

// Remove deletes the entry for key, but only if it still holds the given
// future. A failed fetch must remove its own entry so the next caller retries
// immediately instead of waiting out the TTL on a poisoned value; the identity
// check keeps a slow failure path from evicting a newer entry.
func (c *Cache[K, T]) Remove(key K, f *Future[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok && e.Future == f {
		delete(c.entries, key)
	}
}
