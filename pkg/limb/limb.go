// Package limb provides the arm, gripper and robot-enable interfaces.
package limb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/teslashibe/go-rsdk/internal/config"
	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/protocol"
	"github.com/teslashibe/go-rsdk/pkg/statecache"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

// Options configures the interfaces in this package.
type Options struct {
	Prefix string
	Logger *slog.Logger
}

func (o Options) withDefaults(component string) (Options, *transport.Topics) {
	if o.Prefix == "" {
		o.Prefix = config.DefaultPrefix
	}
	o.Logger = log.Or(o.Logger, component)
	return o, transport.NewTopics(o.Prefix)
}

// Limb mirrors one arm's joint state and sends joint position commands.
// It implements dispatch.BatchWriter.
type Limb struct {
	side      string
	pub       transport.Publisher
	topics    *transport.Topics
	state     *statecache.Cache[protocol.JointState]
	sub       transport.Subscription
	logger    *slog.Logger
	rejectLog rate.Sometimes
}

// New subscribes to the joint state topic of side and blocks until the
// first snapshot arrives or ctx ends.
func New(ctx context.Context, bus transport.Bus, side string, opts Options) (*Limb, error) {
	opts, topics := opts.withDefaults("limb")

	l := &Limb{
		side:      side,
		pub:       bus,
		topics:    topics,
		state:     statecache.New[protocol.JointState](),
		logger:    opts.Logger.With("side", side),
		rejectLog: rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}

	sub, err := bus.Subscribe(topics.LimbState(side), l.state.Feed("limb_"+side, protocol.DecodeJointState, l.reject))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s joint state: %w", side, err)
	}
	l.sub = sub

	if _, ok := l.state.Await(ctx); !ok {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("waiting for %s joint state: %w", side, ctx.Err())
	}
	return l, nil
}

func (l *Limb) reject(err error) {
	l.rejectLog.Do(func() {
		l.logger.Warn("dropping joint state", "error", err)
	})
}

// Side returns the limb name ("left" or "right").
func (l *Limb) Side() string { return l.side }

// Close stops mirroring joint state.
func (l *Limb) Close() error {
	return l.sub.Unsubscribe()
}

// JointNames returns the joint names in the latest snapshot.
func (l *Limb) JointNames() ([]string, error) {
	s, err := l.state.Load()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), s.Names...), nil
}

// JointAngle returns the current position of joint name in radians.
func (l *Limb) JointAngle(name string) (float64, error) {
	s, err := l.state.Load()
	if err != nil {
		return 0, err
	}
	v, ok := s.Position(name)
	if !ok {
		return 0, fmt.Errorf("%s limb has no joint %q", l.side, name)
	}
	return v, nil
}

// JointAngles returns all current joint positions.
func (l *Limb) JointAngles() (map[string]float64, error) {
	s, err := l.state.Load()
	if err != nil {
		return nil, err
	}
	return s.Map(), nil
}

// SetPositions commands the given joints. It does not wait for motion.
func (l *Limb) SetPositions(positions map[string]float64) error {
	if len(positions) == 0 {
		return nil
	}
	data, err := protocol.EncodeJoints(positions)
	if err != nil {
		return err
	}
	return l.pub.Publish(l.topics.LimbCommand(l.side), data)
}

// ApplyBatch sends one joint command for a tick's batch.
func (l *Limb) ApplyBatch(_ context.Context, batch map[string]float64) error {
	return l.SetPositions(batch)
}
