// Package head controls the robot's head: pan angle and the nod gesture.
//
// A Head mirrors the robot's head state from the state topic. Commands are
// fire-and-forget on the wire; SetPan and CommandNod turn them into
// bounded, synchronous calls by republishing until the mirrored state
// confirms the motion or the timeout elapses.
package head

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/teslashibe/go-rsdk/internal/config"
	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/confirm"
	"github.com/teslashibe/go-rsdk/pkg/protocol"
	"github.com/teslashibe/go-rsdk/pkg/statecache"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

const (
	// DefaultSpeed is the pan speed used when PanOptions.Speed is zero.
	DefaultSpeed = 100
	// NodTimeout bounds CommandNod.
	NodTimeout = time.Second
)

// Options configures a Head.
type Options struct {
	Prefix string
	// Tolerance is the pan convergence tolerance in radians.
	Tolerance float64
	// RateHz is the republish rate of SetPan and CommandNod.
	RateHz float64
	Logger *slog.Logger
}

// PanOptions are per-call SetPan parameters.
type PanOptions struct {
	// Speed is 1-100; 0 selects DefaultSpeed.
	Speed int
	// Timeout is how long to wait for the head to arrive. Zero publishes
	// once and returns.
	Timeout time.Duration
}

// Head is the head interface.
type Head struct {
	pub       transport.Publisher
	topics    *transport.Topics
	state     *statecache.Cache[protocol.HeadState]
	sub       transport.Subscription
	tolerance float64
	rateHz    float64
	logger    *slog.Logger
	rejectLog rate.Sometimes
}

// New subscribes to the head state topic and blocks until the first
// complete snapshot arrives. If ctx ends first it returns an error wrapping
// ctx.Err(): no state was ever received.
func New(ctx context.Context, bus transport.Bus, opts Options) (*Head, error) {
	if opts.Prefix == "" {
		opts.Prefix = config.DefaultPrefix
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = config.DefaultJointAngleTolerance
	}
	if opts.RateHz <= 0 {
		opts.RateHz = config.DefaultRateHz
	}

	h := &Head{
		pub:       bus,
		topics:    transport.NewTopics(opts.Prefix),
		state:     statecache.New[protocol.HeadState](),
		tolerance: opts.Tolerance,
		rateHz:    opts.RateHz,
		logger:    log.Or(opts.Logger, "head"),
		rejectLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}

	sub, err := bus.Subscribe(h.topics.HeadState(), h.state.Feed("head", protocol.DecodeHeadState, h.reject))
	if err != nil {
		return nil, fmt.Errorf("subscribe head state: %w", err)
	}
	h.sub = sub

	h.logger.Debug("waiting for head state", "topic", h.topics.HeadState())
	if _, ok := h.state.Await(ctx); !ok {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("waiting for head state: %w", ctx.Err())
	}
	return h, nil
}

func (h *Head) reject(err error) {
	h.rejectLog.Do(func() {
		h.logger.Warn("dropping head state", "error", err)
	})
}

// Close stops mirroring head state.
func (h *Head) Close() error {
	return h.sub.Unsubscribe()
}

// State returns the latest head snapshot.
func (h *Head) State() (protocol.HeadState, error) {
	return h.state.Load()
}

// Pan returns the current pan angle in radians.
func (h *Head) Pan() (float64, error) {
	s, err := h.state.Load()
	return s.Pan, err
}

// Panning reports whether the head is currently panning.
func (h *Head) Panning() (bool, error) {
	s, err := h.state.Load()
	return s.Panning, err
}

// Nodding reports whether the head is currently nodding.
func (h *Head) Nodding() (bool, error) {
	s, err := h.state.Load()
	return s.Nodding, err
}

// SetPan pans the head to angle radians.
//
// With a zero Timeout the command is published once. Otherwise it is
// republished at the configured rate until the pan is within tolerance;
// running out of time returns an error matching confirm.ErrTimedOut.
func (h *Head) SetPan(ctx context.Context, angle float64, opts PanOptions) (confirm.Result, error) {
	speed := opts.Speed
	if speed == 0 {
		speed = DefaultSpeed
	}
	if speed < 1 || speed > 100 {
		return confirm.Result{}, fmt.Errorf("pan speed must be 1-100, got %d", speed)
	}

	data, err := protocol.EncodeHeadPan(angle, speed)
	if err != nil {
		return confirm.Result{}, err
	}

	return confirm.Run(ctx, confirm.Spec{
		Goal:      fmt.Sprintf("head pan to %.3f rad (±%.3f)", angle, h.tolerance),
		Publish:   h.publisher(h.topics.HeadPan(), data),
		Converged: confirm.WithinTolerance(h.Pan, angle, h.tolerance),
		Timeout:   opts.Timeout,
		RateHz:    h.rateHz,
		Logger:    h.logger,
	})
}

// CommandNod nods the head once, republishing for up to NodTimeout until
// the head reports nodding.
func (h *Head) CommandNod(ctx context.Context) (confirm.Result, error) {
	data, err := protocol.EncodeNod()
	if err != nil {
		return confirm.Result{}, err
	}

	return confirm.Run(ctx, confirm.Spec{
		Goal:      "head nod",
		Publish:   h.publisher(h.topics.HeadNod(), data),
		Converged: confirm.IsTrue(h.Nodding),
		Timeout:   NodTimeout,
		RateHz:    h.rateHz,
		Logger:    h.logger,
	})
}

func (h *Head) publisher(topic string, data []byte) func(context.Context) error {
	return func(context.Context) error {
		return h.pub.Publish(topic, data)
	}
}
