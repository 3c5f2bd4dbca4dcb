// Package confirm layers "send and wait until it happened" semantics on top
// of a fire-and-forget command channel.
//
// The command is republished on every tick until a convergence predicate
// over the latest cached state holds, the tick budget runs out, or the
// context is cancelled. Republishing compensates for lossy delivery; the
// remote side must tolerate repeated identical commands.
package confirm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/metrics"
	"github.com/teslashibe/go-rsdk/pkg/ticker"
)

var tracer = otel.Tracer("github.com/teslashibe/go-rsdk/pkg/confirm")

// Outcome is how a loop finished without error.
type Outcome int

const (
	// Converged means the predicate held before the budget ran out.
	Converged Outcome = iota + 1
	// FireAndForget means Timeout was zero: published once, never checked.
	FireAndForget
	// Shutdown means the context ended. It is not a failure.
	Shutdown
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case FireAndForget:
		return "fire_and_forget"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Spec describes one command-confirm invocation.
type Spec struct {
	// Goal describes what is awaited, e.g. "head pan to 1.000 rad (±0.009)".
	// It is carried by TimedOutError.
	Goal string

	// Publish sends the command once. It is called once up front and once
	// per tick after that.
	Publish func(ctx context.Context) error

	// Converged reports whether the goal was reached, usually by reading a
	// statecache. Required unless Timeout is zero.
	Converged func() (bool, error)

	// Timeout bounds the wait. Zero means fire and forget.
	Timeout time.Duration

	// RateHz is the republish/check rate. The tick budget is
	// floor(RateHz * Timeout seconds). Required unless Timeout is zero.
	RateHz float64

	// Ticker overrides the wait primitive (tests). Defaults to ticker.New(RateHz).
	Ticker ticker.Waiter

	Logger *slog.Logger
}

// Result describes a finished loop.
type Result struct {
	Outcome Outcome
	// Ticks is the number of check iterations executed.
	Ticks int
	// Publishes counts every publish attempt including the initial one.
	Publishes int
}

// MaxTicks returns the tick budget for a rate and timeout.
func MaxTicks(rateHz float64, timeout time.Duration) int {
	return int(math.Trunc(rateHz * timeout.Seconds()))
}

// Run executes the loop described by spec.
//
// It returns a *TimedOutError (errors.Is ErrTimedOut) when the budget is
// exhausted, and wraps any error returned by Converged. Context
// cancellation yields Outcome Shutdown with a nil error.
func Run(ctx context.Context, spec Spec) (res Result, err error) {
	if spec.Publish == nil {
		return res, fmt.Errorf("%w: Publish is required", ErrInvalidSpec)
	}
	if spec.Timeout < 0 {
		return res, fmt.Errorf("%w: negative timeout %v", ErrInvalidSpec, spec.Timeout)
	}
	if spec.Timeout > 0 && spec.Converged == nil {
		return res, fmt.Errorf("%w: Converged is required when waiting", ErrInvalidSpec)
	}
	if spec.Timeout > 0 && spec.RateHz <= 0 {
		return res, fmt.Errorf("%w: rate must be positive when waiting, got %v Hz", ErrInvalidSpec, spec.RateHz)
	}

	logger := log.Or(spec.Logger, "confirm")

	ctx, span := tracer.Start(ctx, "confirm.Run", trace.WithAttributes(
		attribute.String("goal", spec.Goal),
		attribute.Float64("rate_hz", spec.RateHz),
		attribute.String("timeout", spec.Timeout.String()),
	))
	defer func() {
		outcome := res.Outcome.String()
		if err != nil {
			outcome = "error"
			if _, ok := err.(*TimedOutError); ok {
				outcome = "timed_out"
			}
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(
			attribute.String("outcome", outcome),
			attribute.Int("ticks", res.Ticks),
			attribute.Int("publishes", res.Publishes),
		)
		span.End()
		metrics.ConfirmRuns.WithLabelValues(outcome).Inc()
	}()

	warn := rate.Sometimes{First: 1, Interval: 5 * time.Second}
	publish := func() {
		res.Publishes++
		metrics.ConfirmPublishes.Inc()
		if err := spec.Publish(ctx); err != nil {
			metrics.ConfirmPublishErrors.Inc()
			warn.Do(func() {
				logger.Warn("publish failed", "goal", spec.Goal, "error", err, "publishes", res.Publishes)
			})
		}
	}

	publish()
	if spec.Timeout == 0 {
		res.Outcome = FireAndForget
		return res, nil
	}

	tk := spec.Ticker
	if tk == nil {
		t := ticker.New(spec.RateHz)
		defer t.Stop()
		tk = t
	}

	maxTicks := MaxTicks(spec.RateHz, spec.Timeout)
	for i := 0; i < maxTicks; i++ {
		if ctx.Err() != nil {
			res.Outcome = Shutdown
			return res, nil
		}

		publish()
		res.Ticks = i + 1

		ok, err := spec.Converged()
		if err != nil {
			return res, fmt.Errorf("checking %s: %w", spec.Goal, err)
		}
		if ok {
			res.Outcome = Converged
			logger.Debug("converged", "goal", spec.Goal, "ticks", res.Ticks)
			return res, nil
		}

		if err := tk.Wait(ctx); err != nil {
			res.Outcome = Shutdown
			return res, nil
		}
	}

	return res, &TimedOutError{Goal: spec.Goal, Ticks: maxTicks, Timeout: spec.Timeout}
}

// WithinTolerance builds a predicate that holds when |read() - target| < tol.
func WithinTolerance(read func() (float64, error), target, tol float64) func() (bool, error) {
	return func() (bool, error) {
		v, err := read()
		if err != nil {
			return false, err
		}
		return math.Abs(v-target) < tol, nil
	}
}

// IsTrue builds a predicate over a boolean state flag.
func IsTrue(read func() (bool, error)) func() (bool, error) {
	return read
}
