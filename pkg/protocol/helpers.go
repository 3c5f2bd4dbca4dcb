package protocol

import (
	"fmt"
	"slices"
)

// =============================================================================
// Encoding helpers used by publishers
// =============================================================================

// Encode wraps data in a Message and serializes it.
func Encode(t MessageType, data any) ([]byte, error) {
	msg, err := NewMessage(t, data)
	if err != nil {
		return nil, err
	}
	return msg.Bytes()
}

// EncodeHeadPan encodes a head pan command.
func EncodeHeadPan(target float64, speed int) ([]byte, error) {
	return Encode(TypeHeadPan, HeadPanCommand{Target: target, Speed: speed})
}

// EncodeNod encodes a nod command.
func EncodeNod() ([]byte, error) {
	return Encode(TypeHeadNod, NodCommand{Nod: true})
}

// EncodeJoints encodes a joint position command from a name → position map.
// Names are sorted so identical maps encode identically.
func EncodeJoints(positions map[string]float64) ([]byte, error) {
	return Encode(TypeJoints, NewJointCommand(positions))
}

// EncodeGripper encodes a gripper command.
func EncodeGripper(action GripperAction) ([]byte, error) {
	return Encode(TypeGripper, GripperCommand{Action: action})
}

// EncodeEnable encodes an enable/disable command.
func EncodeEnable(enable bool) ([]byte, error) {
	return Encode(TypeEnable, EnableCommand{Enable: enable})
}

// =============================================================================
// Decoding helpers used by subscribers
// =============================================================================

// DecodeHeadState parses a head state snapshot and rejects partial ones.
func DecodeHeadState(data []byte) (HeadState, error) {
	msg, err := ParseMessage(data)
	if err != nil {
		return HeadState{}, err
	}
	if err := msg.Expect(TypeHeadState); err != nil {
		return HeadState{}, err
	}

	var w headStateWire
	if err := msg.ParseData(&w); err != nil {
		return HeadState{}, fmt.Errorf("failed to parse head state: %w", err)
	}

	var missing []string
	if w.Pan == nil {
		missing = append(missing, "pan")
	}
	if w.Panning == nil {
		missing = append(missing, "panning")
	}
	if w.Nodding == nil {
		missing = append(missing, "nodding")
	}
	if len(missing) > 0 {
		return HeadState{}, fmt.Errorf("%w: missing %v", ErrPartialState, missing)
	}

	return HeadState{Pan: *w.Pan, Panning: *w.Panning, Nodding: *w.Nodding}, nil
}

// DecodeJointState parses a joint state snapshot.
func DecodeJointState(data []byte) (JointState, error) {
	msg, err := ParseMessage(data)
	if err != nil {
		return JointState{}, err
	}
	if err := msg.Expect(TypeJointState); err != nil {
		return JointState{}, err
	}

	var s JointState
	if err := msg.ParseData(&s); err != nil {
		return JointState{}, fmt.Errorf("failed to parse joint state: %w", err)
	}
	if len(s.Names) == 0 || len(s.Names) != len(s.Positions) {
		return JointState{}, fmt.Errorf("%w: %d names, %d positions", ErrPartialState, len(s.Names), len(s.Positions))
	}
	return s, nil
}

// DecodeJointCommand parses a joint command.
func DecodeJointCommand(data []byte) (JointCommand, error) {
	var c JointCommand
	if err := decodeAs(data, TypeJoints, &c); err != nil {
		return JointCommand{}, err
	}
	if len(c.Names) != len(c.Positions) {
		return JointCommand{}, fmt.Errorf("protocol: joint command has %d names and %d positions", len(c.Names), len(c.Positions))
	}
	return c, nil
}

// DecodeHeadPan parses a head pan command.
func DecodeHeadPan(data []byte) (HeadPanCommand, error) {
	var c HeadPanCommand
	if err := decodeAs(data, TypeHeadPan, &c); err != nil {
		return HeadPanCommand{}, err
	}
	return c, nil
}

// DecodeNod parses a nod command.
func DecodeNod(data []byte) (NodCommand, error) {
	var c NodCommand
	if err := decodeAs(data, TypeHeadNod, &c); err != nil {
		return NodCommand{}, err
	}
	return c, nil
}

// DecodeGripper parses a gripper command.
func DecodeGripper(data []byte) (GripperCommand, error) {
	var c GripperCommand
	if err := decodeAs(data, TypeGripper, &c); err != nil {
		return GripperCommand{}, err
	}
	return c, nil
}

// DecodeEnable parses an enable command.
func DecodeEnable(data []byte) (EnableCommand, error) {
	var c EnableCommand
	if err := decodeAs(data, TypeEnable, &c); err != nil {
		return EnableCommand{}, err
	}
	return c, nil
}

// DecodeGamepad parses a gamepad snapshot.
func DecodeGamepad(data []byte) (GamepadState, error) {
	var s GamepadState
	if err := decodeAs(data, TypeGamepad, &s); err != nil {
		return GamepadState{}, err
	}
	return s, nil
}

func decodeAs(data []byte, t MessageType, v any) error {
	msg, err := ParseMessage(data)
	if err != nil {
		return err
	}
	if err := msg.Expect(t); err != nil {
		return err
	}
	if err := msg.ParseData(v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", t, err)
	}
	return nil
}

// NewJointCommand builds a JointCommand with names in sorted order.
func NewJointCommand(positions map[string]float64) JointCommand {
	names := make([]string, 0, len(positions))
	for n := range positions {
		names = append(names, n)
	}
	slices.Sort(names)

	cmd := JointCommand{Names: names, Positions: make([]float64, len(names))}
	for i, n := range names {
		cmd.Positions[i] = positions[n]
	}
	return cmd
}

// EncodeHeadState encodes a head snapshot (used by the simulator).
func EncodeHeadState(s HeadState) ([]byte, error) {
	return Encode(TypeHeadState, s)
}

// EncodeJointState encodes a joint snapshot (used by the simulator).
func EncodeJointState(s JointState) ([]byte, error) {
	return Encode(TypeJointState, s)
}
