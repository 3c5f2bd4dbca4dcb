// Package ticker provides the fixed-rate suspension point shared by the
// command-confirm and dispatch loops.
package ticker

import (
	"context"
	"time"
)

// Waiter is the only suspension point a control loop needs.
// Wait blocks until the next period boundary and returns ctx.Err() if the
// context ends first.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Ticker fires approximately hz times per second. Ticks missed by a slow
// caller are dropped, so drift never accumulates into a burst.
type Ticker struct {
	period time.Duration
	t      *time.Ticker
}

// New creates a Ticker running at hz. Non-positive rates fall back to 1 Hz.
func New(hz float64) *Ticker {
	period := Period(hz)
	return &Ticker{
		period: period,
		t:      time.NewTicker(period),
	}
}

// Period converts a rate in Hz into a tick period.
func Period(hz float64) time.Duration {
	if hz <= 0 {
		hz = 1
	}
	p := time.Duration(float64(time.Second) / hz)
	if p <= 0 {
		p = time.Nanosecond
	}
	return p
}

// Period returns the tick period.
func (t *Ticker) Period() time.Duration {
	return t.period
}

// Wait suspends until the next tick or until ctx is done.
func (t *Ticker) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.t.C:
		return nil
	}
}

// Stop releases the underlying timer.
func (t *Ticker) Stop() {
	t.t.Stop()
}

// Func adapts a plain function to the Waiter interface.
type Func func(ctx context.Context) error

// Wait calls f.
func (f Func) Wait(ctx context.Context) error {
	return f(ctx)
}

var _ Waiter = (*Ticker)(nil)
var _ Waiter = Func(nil)
