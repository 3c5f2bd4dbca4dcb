// Package protocol defines the messages exchanged with the robot over the
// pub/sub transport.
//
// Every payload travels inside a Message envelope (type, id, timestamp,
// JSON data). State snapshots must be complete: decoders reject updates
// that omit fields, so a partial update can never silently replace a
// complete snapshot in a state cache.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the payload carried by a Message.
type MessageType string

const (
	// Commands (controller → robot)
	TypeHeadPan MessageType = "head_pan" // Pan to an angle at a speed
	TypeHeadNod MessageType = "head_nod" // Nod once
	TypeJoints  MessageType = "joints"   // Joint position command
	TypeGripper MessageType = "gripper"  // Open / close
	TypeEnable  MessageType = "enable"   // Enable / disable motors

	// State (robot → controller)
	TypeHeadState  MessageType = "head_state"
	TypeJointState MessageType = "joint_state"

	// Operator input
	TypeGamepad MessageType = "gamepad"
	TypeLabel   MessageType = "label"
)

// ErrPartialState is returned when a state snapshot is missing fields.
var ErrPartialState = errors.New("protocol: partial state snapshot")

// ErrUnexpectedType is returned when a Message carries another payload type.
var ErrUnexpectedType = errors.New("protocol: unexpected message type")

// Message is the envelope for all transport payloads.
type Message struct {
	ID        string          `json:"id"`
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with a fresh ID and the current timestamp.
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct.
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// Expect returns ErrUnexpectedType unless m carries t.
func (m *Message) Expect(t MessageType) error {
	if m.Type != t {
		return fmt.Errorf("%w: got %q, want %q", ErrUnexpectedType, m.Type, t)
	}
	return nil
}

// =============================================================================
// Commands
// =============================================================================

// HeadPanCommand pans the head to Target radians at Speed (0-100).
type HeadPanCommand struct {
	Target float64 `json:"target"`
	Speed  int     `json:"speed"`
}

// NodCommand triggers a single nod.
type NodCommand struct {
	Nod bool `json:"nod"`
}

// JointCommand sets joint positions, Names[i] ↔ Positions[i].
type JointCommand struct {
	Names     []string  `json:"names"`
	Positions []float64 `json:"positions"`
}

// GripperAction is what a GripperCommand asks for.
type GripperAction string

const (
	GripperOpen  GripperAction = "open"
	GripperClose GripperAction = "close"
)

// GripperCommand opens or closes a gripper.
type GripperCommand struct {
	Action GripperAction `json:"action"`
}

// EnableCommand enables or disables the robot's motors.
type EnableCommand struct {
	Enable bool `json:"enable"`
}

// =============================================================================
// State
// =============================================================================

// HeadState is a complete head snapshot.
type HeadState struct {
	Pan     float64 `json:"pan"`     // Radians
	Panning bool    `json:"panning"` // Pan motion in progress
	Nodding bool    `json:"nodding"` // Nod in progress
}

// Field returns a head state field by name.
func (s HeadState) Field(name string) (any, error) {
	switch name {
	case "pan":
		return s.Pan, nil
	case "panning":
		return s.Panning, nil
	case "nodding":
		return s.Nodding, nil
	default:
		return nil, fmt.Errorf("protocol: unknown head state field %q", name)
	}
}

// headStateWire detects omitted fields.
type headStateWire struct {
	Pan     *float64 `json:"pan"`
	Panning *bool    `json:"panning"`
	Nodding *bool    `json:"nodding"`
}

// JointState is a complete limb snapshot.
type JointState struct {
	Names     []string  `json:"names"`
	Positions []float64 `json:"positions"`
}

// Map returns the snapshot as name → position.
func (s JointState) Map() map[string]float64 {
	m := make(map[string]float64, len(s.Names))
	for i, n := range s.Names {
		m[n] = s.Positions[i]
	}
	return m
}

// Position returns the position of joint name.
func (s JointState) Position(name string) (float64, bool) {
	for i, n := range s.Names {
		if n == name {
			return s.Positions[i], true
		}
	}
	return 0, false
}

// =============================================================================
// Operator input
// =============================================================================

// GamepadState is a raw controller snapshot as read by the browser Gamepad
// API or a local driver.
type GamepadState struct {
	Axes    []float64 `json:"axes"`
	Buttons []bool    `json:"buttons"`
}

// LabelEvent is a fired binding label, broadcast to operators.
type LabelEvent struct {
	Label string `json:"label"`
	Tick  uint64 `json:"tick,omitempty"`
}
