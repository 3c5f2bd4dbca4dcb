// Package statecache holds the latest state snapshot pushed by a transport
// subscription.
//
// A Cache has exactly one writer (the subscription callback) and any number
// of readers. Each Update publishes a whole snapshot through an atomic
// pointer swap, so readers never see a half-applied state and no lock is
// taken on the read path.
package statecache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotReady is returned when state is read before the first snapshot
// arrived. It signals a caller that skipped the startup barrier.
var ErrNotReady = errors.New("statecache: no state received yet")

// Cache stores the most recent snapshot of type S.
type Cache[S any] struct {
	snap    atomic.Pointer[S]
	ready   chan struct{}
	once    sync.Once
	updates atomic.Uint64
}

// New creates an empty cache.
func New[S any]() *Cache[S] {
	return &Cache[S]{ready: make(chan struct{})}
}

// Update replaces the cached snapshot. It never blocks and is safe to call
// from a transport callback goroutine.
func (c *Cache[S]) Update(s S) {
	c.snap.Store(&s)
	c.updates.Add(1)
	c.once.Do(func() { close(c.ready) })
}

// Load returns the current snapshot without blocking.
func (c *Cache[S]) Load() (S, error) {
	p := c.snap.Load()
	if p == nil {
		var zero S
		return zero, ErrNotReady
	}
	return *p, nil
}

// Await blocks until the first snapshot arrives and returns it. If ctx ends
// first it returns ok=false: the process is shutting down and no value was
// ever received.
func (c *Cache[S]) Await(ctx context.Context) (s S, ok bool) {
	select {
	case <-c.ready:
		s, _ = c.Load()
		return s, true
	case <-ctx.Done():
		// a snapshot may have landed at the same instant
		if p := c.snap.Load(); p != nil {
			return *p, true
		}
		return s, false
	}
}

// Ready is closed once the first snapshot has been stored.
func (c *Cache[S]) Ready() <-chan struct{} {
	return c.ready
}

// IsReady reports whether a snapshot is available.
func (c *Cache[S]) IsReady() bool {
	return c.snap.Load() != nil
}

// Updates returns how many snapshots have been received.
func (c *Cache[S]) Updates() uint64 {
	return c.updates.Load()
}
