package teleop

import (
	"context"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-rsdk/pkg/dispatch"
	"github.com/teslashibe/go-rsdk/pkg/joystick"
	"github.com/teslashibe/go-rsdk/pkg/ticker"
)

var noWait = ticker.Func(func(ctx context.Context) error { return ctx.Err() })

// frame is the controller state for one tick.
type frame struct {
	high, low, down, up []string
}

// script replays frames, one per Poll, and asks to stop when they run out.
type script struct {
	frames []frame
	i      int
}

func newScript(frames ...frame) *script { return &script{frames: frames, i: -1} }

func (s *script) Poll()               { s.i++ }
func (s *script) StopRequested() bool { return s.i+1 >= len(s.frames) }

func (s *script) cur() frame                  { return s.frames[s.i] }
func (s *script) StickHigh(name string) bool  { return slices.Contains(s.cur().high, name) }
func (s *script) StickLow(name string) bool   { return slices.Contains(s.cur().low, name) }
func (s *script) ButtonDown(name string) bool { return slices.Contains(s.cur().down, name) }
func (s *script) ButtonUp(name string) bool   { return slices.Contains(s.cur().up, name) }

type joints map[string]float64

func (j joints) JointAngle(name string) (float64, error) {
	v, ok := j[name]
	if !ok {
		return 0, fmt.Errorf("no joint %q", name)
	}
	return v, nil
}

type gripperLog []string

func (g *gripperLog) Open() error  { *g = append(*g, "open"); return nil }
func (g *gripperLog) Close() error { *g = append(*g, "close"); return nil }

type recorder []map[string]float64

func (r *recorder) ApplyBatch(_ context.Context, batch map[string]float64) error {
	*r = append(*r, batch)
	return nil
}

type labels []string

func (l *labels) Emit(s string) { *l = append(*l, s) }

type rig struct {
	left, right         Arm
	leftGrip, rightGrip gripperLog
	leftOut, rightOut   recorder
	labels              labels
}

func run(t *testing.T, frames ...frame) *rig {
	t.Helper()
	r := &rig{}
	r.left = Arm{Name: "left", Joints: joints{"s0": 0.2, "s1": 0.5, "e0": 0.3}, Gripper: &r.leftGrip, Cycle: dispatch.NewCycle(DefaultJoints...)}
	r.right = Arm{Name: "right", Joints: joints{"s0": -0.2, "s1": 0.0}, Gripper: &r.rightGrip, Cycle: dispatch.NewCycle(DefaultJoints...)}

	s := newScript(frames...)
	e := dispatch.New(dispatch.Config{Ticker: noWait, Stop: s, Input: s, Sink: &r.labels})
	require.NoError(t, e.AddTarget("left", &r.leftOut))
	require.NoError(t, e.AddTarget("right", &r.rightOut))
	require.NoError(t, e.Bind(Map(s, r.left, r.right)...))

	term, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, dispatch.UserStopped, term)
	return r
}

func TestMap_BindingCount(t *testing.T) {
	bindings := Map(newScript(), Arm{Name: "left"}, Arm{Name: "right"})
	assert.Len(t, bindings, 14)
}

func TestMap_LeftStickDrivesRightArm(t *testing.T) {
	r := run(t, frame{high: []string{joystick.LeftStickHorz}, low: []string{joystick.LeftStickVert}})

	require.Len(t, r.rightOut, 1)
	assert.InDelta(t, -0.1, r.rightOut[0]["s0"], 1e-9)
	assert.InDelta(t, -0.1, r.rightOut[0]["s1"], 1e-9)
	assert.Empty(t, r.leftOut)
	assert.Equal(t, labels{"right inc s0", "right dec s1"}, r.labels)
}

func TestMap_BumperRotatesCycle(t *testing.T) {
	r := run(t,
		frame{down: []string{joystick.RightBumper}},
		frame{high: []string{joystick.RightStickHorz}, low: []string{joystick.RightStickVert}},
	)

	assert.Equal(t, []string{"s1", "e0", "e1", "w0", "w1", "w2", "s0"}, r.left.Cycle.Names())
	assert.Equal(t, DefaultJoints, r.right.Cycle.Names())

	require.Len(t, r.leftOut, 1, "the rotate tick stages nothing")
	assert.InDelta(t, 0.6, r.leftOut[0]["s1"], 1e-9)
	assert.InDelta(t, 0.2, r.leftOut[0]["e0"], 1e-9)
	assert.Equal(t, labels{"left: cycle joint", "left inc s1", "left dec e0"}, r.labels)
}

func TestMap_Grippers(t *testing.T) {
	r := run(t,
		frame{down: []string{joystick.RightTrigger, joystick.LeftTrigger}},
		frame{up: []string{joystick.RightTrigger}},
	)

	assert.Equal(t, gripperLog{"close", "open"}, r.leftGrip)
	assert.Equal(t, gripperLog{"close"}, r.rightGrip)
	assert.Empty(t, r.leftOut)
	assert.Empty(t, r.rightOut)
	assert.Equal(t, labels{"left: gripper close", "right: gripper close", "left: gripper open"}, r.labels)
}

func TestMap_UnknownJointIsContained(t *testing.T) {
	// Right arm has no e0; after two rotations index 0 selects it.
	r := run(t,
		frame{down: []string{joystick.LeftBumper}},
		frame{down: []string{joystick.LeftBumper}},
		frame{high: []string{joystick.LeftStickHorz}},
	)

	assert.Empty(t, r.rightOut)
	assert.Equal(t, labels{"right: cycle joint", "right: cycle joint"}, r.labels)
}

type enabler []string

func (e *enabler) Enable() error  { *e = append(*e, "enable"); return nil }
func (e *enabler) Disable() error { *e = append(*e, "disable"); return nil }

func TestSession_DisablesOnUserStop(t *testing.T) {
	s := newScript(frame{}, frame{})
	e := dispatch.New(dispatch.Config{Ticker: noWait, Stop: s, Input: s})
	require.NoError(t, e.Bind(Map(s, Arm{Name: "left", Gripper: &gripperLog{}}, Arm{Name: "right", Gripper: &gripperLog{}})...))

	var robot enabler
	term, err := Session{Engine: e, Robot: &robot}.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dispatch.UserStopped, term)
	assert.Equal(t, enabler{"enable", "disable"}, robot)
}

func TestSession_LeavesRobotOnShutdown(t *testing.T) {
	s := newScript(frame{})
	e := dispatch.New(dispatch.Config{Ticker: noWait, Input: s})
	require.NoError(t, e.Bind(dispatch.Binding{When: func() bool { return false }, Do: func(*dispatch.Batches) error { return nil }}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var robot enabler
	term, err := Session{Engine: e, Robot: &robot}.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, dispatch.Shutdown, term)
	assert.Equal(t, enabler{"enable"}, robot)
}
