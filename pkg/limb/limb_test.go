package limb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-rsdk/pkg/dispatch"
	"github.com/teslashibe/go-rsdk/pkg/protocol"
	"github.com/teslashibe/go-rsdk/pkg/sim"
	"github.com/teslashibe/go-rsdk/pkg/statecache"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

const prefix = "test"

var _ dispatch.BatchWriter = (*Limb)(nil)

func withSim(t *testing.T) (*transport.MemoryBus, *sim.Robot) {
	t.Helper()
	bus := transport.NewMemoryBus()
	t.Cleanup(func() { bus.Close() })

	robot, err := sim.New(bus, sim.Options{Prefix: prefix})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		robot.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return bus, robot
}

func newLimb(t *testing.T, bus transport.Bus, side string) *Limb {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	l, err := New(ctx, bus, side, Options{Prefix: prefix})
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLimb_ReadsState(t *testing.T) {
	bus, _ := withSim(t)
	l := newLimb(t, bus, "left")

	names, err := l.JointNames()
	require.NoError(t, err)
	assert.Equal(t, sim.Joints, names)

	v, err := l.JointAngle("s0")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	_, err = l.JointAngle("elbow")
	assert.Error(t, err)

	all, err := l.JointAngles()
	require.NoError(t, err)
	assert.Len(t, all, len(sim.Joints))
}

func TestLimb_NewShutdown(t *testing.T) {
	bus := transport.NewMemoryBus()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, bus, "left", Options{Prefix: prefix})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLimb_ApplyBatchMovesJoints(t *testing.T) {
	bus, robot := withSim(t)
	l := newLimb(t, bus, "right")

	require.NoError(t, NewRobotEnable(bus, Options{Prefix: prefix}).Enable())
	require.Eventually(t, robot.Enabled, time.Second, time.Millisecond)

	require.NoError(t, l.ApplyBatch(context.Background(), map[string]float64{"s0": 0.1, "s1": -0.1}))

	require.Eventually(t, func() bool {
		s0, _ := l.JointAngle("s0")
		s1, _ := l.JointAngle("s1")
		return s0 == 0.1 && s1 == -0.1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLimb_EmptyBatchPublishesNothing(t *testing.T) {
	bus := transport.NewMemoryBus()
	defer bus.Close()

	l := &Limb{side: "left", pub: bus, topics: transport.NewTopics(prefix), state: statecache.New[protocol.JointState]()}
	require.NoError(t, l.SetPositions(nil))
	assert.Zero(t, bus.Stats().MessagesSent)

	_, err := l.JointAngle("s0")
	assert.ErrorIs(t, err, statecache.ErrNotReady)
}

func TestGripper(t *testing.T) {
	bus, robot := withSim(t)
	require.NoError(t, NewRobotEnable(bus, Options{Prefix: prefix}).Enable())
	require.Eventually(t, robot.Enabled, time.Second, time.Millisecond)

	g := NewGripper(bus, "left", Options{Prefix: prefix})
	require.NoError(t, g.Close())
	require.Eventually(t, func() bool {
		return robot.Gripper("left") == protocol.GripperClose
	}, time.Second, time.Millisecond)

	require.NoError(t, g.Open())
	require.Eventually(t, func() bool {
		return robot.Gripper("left") == protocol.GripperOpen
	}, time.Second, time.Millisecond)
}

func TestRobotEnable(t *testing.T) {
	bus, robot := withSim(t)
	re := NewRobotEnable(bus, Options{Prefix: prefix})

	require.NoError(t, re.Enable())
	require.Eventually(t, robot.Enabled, time.Second, time.Millisecond)

	require.NoError(t, re.Disable())
	require.Eventually(t, func() bool { return !robot.Enabled() }, time.Second, time.Millisecond)
}
