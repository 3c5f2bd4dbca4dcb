// Package sim provides a simulated two-armed robot with a panning head.
//
// It listens on the same topics as a real robot and publishes complete
// state snapshots at a fixed rate, so every interface in this module can be
// exercised without hardware:
//
//	bus := transport.NewMemoryBus()
//	robot, _ := sim.New(bus, sim.Options{Prefix: "rsdk"})
//	go robot.Run(ctx)
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/protocol"
	"github.com/teslashibe/go-rsdk/pkg/ticker"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

// Joints lists the joints of each simulated limb.
var Joints = []string{"s0", "s1", "e0", "e1", "w0", "w1", "w2"}

// Sides lists the simulated limbs.
var Sides = []string{"left", "right"}

// Motion limits.
const (
	MaxPanVelocity   = 2.0 // rad/s at speed 100
	MaxJointVelocity = 1.5 // rad/s
	NodDuration      = 500 * time.Millisecond
	PanTolerance     = 1e-4 // below this the head counts as arrived
)

// Options configures a simulated robot.
type Options struct {
	Prefix string
	// RateHz is the physics and publish rate. Default 100.
	RateHz float64
	// Enabled starts the robot enabled. Limb and gripper commands are
	// ignored while disabled; the head always responds.
	Enabled bool
	Logger  *slog.Logger
}

type limbState struct {
	positions map[string]float64
	targets   map[string]float64
	gripper   protocol.GripperAction
}

// Robot is a simulated robot.
type Robot struct {
	bus    transport.Bus
	topics *transport.Topics
	rateHz float64
	logger *slog.Logger

	mu        sync.Mutex
	pan       float64
	panTarget float64
	panSpeed  int
	nodLeft   time.Duration
	enabled   bool
	limbs     map[string]*limbState

	subs []transport.Subscription
}

// New creates a simulated robot and subscribes to its command topics.
func New(bus transport.Bus, opts Options) (*Robot, error) {
	if opts.Prefix == "" {
		opts.Prefix = transport.DefaultConfig().Prefix
	}
	if opts.RateHz <= 0 {
		opts.RateHz = 100
	}

	r := &Robot{
		bus:      bus,
		topics:   transport.NewTopics(opts.Prefix),
		rateHz:   opts.RateHz,
		logger:   log.Or(opts.Logger, "sim"),
		panSpeed: 100,
		enabled:  opts.Enabled,
		limbs:    make(map[string]*limbState, len(Sides)),
	}
	for _, side := range Sides {
		ls := &limbState{
			positions: make(map[string]float64, len(Joints)),
			targets:   make(map[string]float64, len(Joints)),
			gripper:   protocol.GripperOpen,
		}
		for _, j := range Joints {
			ls.positions[j] = 0
			ls.targets[j] = 0
		}
		r.limbs[side] = ls
	}

	if err := r.subscribe(); err != nil {
		r.unsubscribe()
		return nil, err
	}
	return r, nil
}

func (r *Robot) subscribe() error {
	routes := map[string]transport.Handler{
		r.topics.HeadPan(): r.onHeadPan,
		r.topics.HeadNod(): r.onHeadNod,
		r.topics.Enable():  r.onEnable,
	}
	for _, side := range Sides {
		routes[r.topics.LimbCommand(side)] = r.onJointCommand(side)
		routes[r.topics.Gripper(side)] = r.onGripper(side)
	}

	for topic, h := range routes {
		sub, err := r.bus.Subscribe(topic, h)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		r.subs = append(r.subs, sub)
	}
	return nil
}

func (r *Robot) unsubscribe() {
	for _, s := range r.subs {
		if err := s.Unsubscribe(); err != nil {
			r.logger.Debug("unsubscribe failed", "error", err)
		}
	}
	r.subs = nil
}

func (r *Robot) onHeadPan(data []byte) {
	cmd, err := protocol.DecodeHeadPan(data)
	if err != nil {
		r.logger.Warn("bad head pan command", "error", err)
		return
	}
	r.mu.Lock()
	r.panTarget = cmd.Target
	r.panSpeed = min(max(cmd.Speed, 1), 100)
	r.mu.Unlock()
}

func (r *Robot) onHeadNod(data []byte) {
	cmd, err := protocol.DecodeNod(data)
	if err != nil {
		r.logger.Warn("bad head nod command", "error", err)
		return
	}
	if !cmd.Nod {
		return
	}
	r.mu.Lock()
	if r.nodLeft <= 0 {
		r.nodLeft = NodDuration
	}
	r.mu.Unlock()
}

func (r *Robot) onEnable(data []byte) {
	cmd, err := protocol.DecodeEnable(data)
	if err != nil {
		r.logger.Warn("bad enable command", "error", err)
		return
	}
	r.mu.Lock()
	r.enabled = cmd.Enable
	r.mu.Unlock()
	r.logger.Info("robot enable changed", "enabled", cmd.Enable)
}

func (r *Robot) onJointCommand(side string) transport.Handler {
	return func(data []byte) {
		cmd, err := protocol.DecodeJointCommand(data)
		if err != nil {
			r.logger.Warn("bad joint command", "side", side, "error", err)
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.enabled {
			return
		}
		ls := r.limbs[side]
		for i, name := range cmd.Names {
			if _, ok := ls.targets[name]; ok {
				ls.targets[name] = cmd.Positions[i]
			}
		}
	}
}

func (r *Robot) onGripper(side string) transport.Handler {
	return func(data []byte) {
		cmd, err := protocol.DecodeGripper(data)
		if err != nil {
			r.logger.Warn("bad gripper command", "side", side, "error", err)
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if !r.enabled {
			return
		}
		r.limbs[side].gripper = cmd.Action
	}
}

// Run steps the simulation and publishes state until ctx is done.
func (r *Robot) Run(ctx context.Context) error {
	t := ticker.New(r.rateHz)
	defer t.Stop()
	defer r.unsubscribe()

	dt := t.Period()
	r.logger.Info("simulator running", "rate_hz", r.rateHz, "prefix", r.topics.Prefix())

	for {
		r.Step(dt)
		if err := r.publish(); err != nil {
			r.logger.Debug("state publish failed", "error", err)
		}
		if err := t.Wait(ctx); err != nil {
			r.logger.Info("simulator stopped")
			return nil
		}
	}
}

// Step advances the simulation by dt.
func (r *Robot) Step(dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sec := dt.Seconds()
	r.pan = approach(r.pan, r.panTarget, MaxPanVelocity*float64(r.panSpeed)/100*sec)

	if r.nodLeft > 0 {
		r.nodLeft -= dt
	}

	for _, ls := range r.limbs {
		for j, target := range ls.targets {
			ls.positions[j] = approach(ls.positions[j], target, MaxJointVelocity*sec)
		}
	}
}

func approach(cur, target, maxStep float64) float64 {
	d := target - cur
	if math.Abs(d) <= maxStep {
		return target
	}
	return cur + math.Copysign(maxStep, d)
}

// HeadState returns the current head snapshot.
func (r *Robot) HeadState() protocol.HeadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headStateLocked()
}

func (r *Robot) headStateLocked() protocol.HeadState {
	return protocol.HeadState{
		Pan:     r.pan,
		Panning: math.Abs(r.panTarget-r.pan) > PanTolerance,
		Nodding: r.nodLeft > 0,
	}
}

// JointState returns the current snapshot of a limb.
func (r *Robot) JointState(side string) (protocol.JointState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.limbs[side]
	if !ok {
		return protocol.JointState{}, false
	}
	return jointStateLocked(ls), true
}

func jointStateLocked(ls *limbState) protocol.JointState {
	s := protocol.JointState{
		Names:     append([]string(nil), Joints...),
		Positions: make([]float64, len(Joints)),
	}
	for i, j := range Joints {
		s.Positions[i] = ls.positions[j]
	}
	return s
}

// Gripper returns the last gripper action applied on side.
func (r *Robot) Gripper(side string) protocol.GripperAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ls, ok := r.limbs[side]; ok {
		return ls.gripper
	}
	return ""
}

// Enabled reports whether the robot is enabled.
func (r *Robot) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *Robot) publish() error {
	r.mu.Lock()
	head := r.headStateLocked()
	joints := make(map[string]protocol.JointState, len(r.limbs))
	for side, ls := range r.limbs {
		joints[side] = jointStateLocked(ls)
	}
	r.mu.Unlock()

	data, err := protocol.EncodeHeadState(head)
	if err != nil {
		return err
	}
	if err := r.bus.Publish(r.topics.HeadState(), data); err != nil {
		return err
	}

	for side, js := range joints {
		data, err := protocol.EncodeJointState(js)
		if err != nil {
			return err
		}
		if err := r.bus.Publish(r.topics.LimbState(side), data); err != nil {
			return err
		}
	}
	return nil
}
