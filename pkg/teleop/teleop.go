// Package teleop maps joystick controls onto joint position and gripper
// commands for both arms.
//
//	right trigger      left gripper (down closes, up opens)
//	left trigger       right gripper
//	left stick         right arm, selected joints 0 (horz) and 1 (vert), ±Step
//	right stick        left arm, selected joints 0 and 1, ±Step
//	left bumper        rotate the right arm's joint cycle
//	right bumper       rotate the left arm's joint cycle
package teleop

import (
	"github.com/teslashibe/go-rsdk/pkg/dispatch"
	"github.com/teslashibe/go-rsdk/pkg/joystick"
)

// Step is the joint increment per tick of stick deflection, in radians.
const Step = 0.1

// DefaultJoints is the initial joint cycle of each arm.
var DefaultJoints = []string{"s0", "s1", "e0", "e1", "w0", "w1", "w2"}

// Input is the polled controller state the bindings read.
type Input interface {
	StickHigh(name string) bool
	StickLow(name string) bool
	ButtonDown(name string) bool
	ButtonUp(name string) bool
}

// JointReader reads current joint angles.
type JointReader interface {
	JointAngle(name string) (float64, error)
}

// Gripper is an end effector.
type Gripper interface {
	Open() error
	Close() error
}

// Arm is everything the bindings need for one side.
type Arm struct {
	// Name is the side ("left", "right") and the dispatch target name.
	Name    string
	Joints  JointReader
	Gripper Gripper
	// Cycle selects which joints the stick axes drive. Nil gets a fresh
	// cycle over DefaultJoints.
	Cycle *dispatch.Cycle
}

// Map builds the binding table. The returned bindings stage joint writes
// under the arms' names, so register each arm's limb as a dispatch target
// with that name.
func Map(js Input, left, right Arm) []dispatch.Binding {
	if left.Cycle == nil {
		left.Cycle = dispatch.NewCycle(DefaultJoints...)
	}
	if right.Cycle == nil {
		right.Cycle = dispatch.NewCycle(DefaultJoints...)
	}

	high := func(s string) dispatch.Predicate { return func() bool { return js.StickHigh(s) } }
	low := func(s string) dispatch.Predicate { return func() bool { return js.StickLow(s) } }
	down := func(s string) dispatch.Predicate { return func() bool { return js.ButtonDown(s) } }
	up := func(s string) dispatch.Predicate { return func() bool { return js.ButtonUp(s) } }

	return []dispatch.Binding{
		{When: down(joystick.RightTrigger), Do: gripper(left.Gripper.Close), Label: dispatch.Text("left: gripper close")},
		{When: up(joystick.RightTrigger), Do: gripper(left.Gripper.Open), Label: dispatch.Text("left: gripper open")},
		{When: down(joystick.LeftTrigger), Do: gripper(right.Gripper.Close), Label: dispatch.Text("right: gripper close")},
		{When: up(joystick.LeftTrigger), Do: gripper(right.Gripper.Open), Label: dispatch.Text("right: gripper open")},

		{When: high(joystick.LeftStickHorz), Do: nudge(right, 0, Step), Label: label(right, "inc", 0)},
		{When: low(joystick.LeftStickHorz), Do: nudge(right, 0, -Step), Label: label(right, "dec", 0)},
		{When: high(joystick.RightStickHorz), Do: nudge(left, 0, Step), Label: label(left, "inc", 0)},
		{When: low(joystick.RightStickHorz), Do: nudge(left, 0, -Step), Label: label(left, "dec", 0)},
		{When: high(joystick.LeftStickVert), Do: nudge(right, 1, Step), Label: label(right, "inc", 1)},
		{When: low(joystick.LeftStickVert), Do: nudge(right, 1, -Step), Label: label(right, "dec", 1)},
		{When: high(joystick.RightStickVert), Do: nudge(left, 1, Step), Label: label(left, "inc", 1)},
		{When: low(joystick.RightStickVert), Do: nudge(left, 1, -Step), Label: label(left, "dec", 1)},

		{When: down(joystick.RightBumper), Do: rotate(left.Cycle), Label: dispatch.Text("left: cycle joint")},
		{When: down(joystick.LeftBumper), Do: rotate(right.Cycle), Label: dispatch.Text("right: cycle joint")},
	}
}

func gripper(fn func() error) dispatch.Action {
	return func(*dispatch.Batches) error { return fn() }
}

// nudge stages joint index of arm's cycle at its current angle + delta.
func nudge(arm Arm, index int, delta float64) dispatch.Action {
	return func(b *dispatch.Batches) error {
		joint := arm.Cycle.At(index)
		cur, err := arm.Joints.JointAngle(joint)
		if err != nil {
			return err
		}
		return b.Set(arm.Name, joint, cur+delta)
	}
}

// label resolves the joint at fire time, after any rotation.
func label(arm Arm, verb string, index int) dispatch.Label {
	return func() string {
		return arm.Name + " " + verb + " " + arm.Cycle.At(index)
	}
}

func rotate(c *dispatch.Cycle) dispatch.Action {
	return func(*dispatch.Batches) error {
		c.Rotate()
		return nil
	}
}
