package transport

import "fmt"

// Topic suffixes, relative to the configured prefix.
const (
	// TopicHeadPan carries protocol.HeadPanCommand.
	TopicHeadPan = "robot/head/command_head_pan"
	// TopicHeadNod carries protocol.NodCommand.
	TopicHeadNod = "robot/head/command_head_nod"
	// TopicHeadState carries protocol.HeadState.
	TopicHeadState = "robot/head/head_state"
	// TopicEnable carries protocol.EnableCommand.
	TopicEnable = "robot/set_super_enable"
	// TopicGamepad carries protocol.GamepadState from remote controllers.
	TopicGamepad = "operator/gamepad"
	// TopicLabels carries protocol.LabelEvent.
	TopicLabels = "operator/labels"
)

// Topics is a helper to build fully-qualified topic names.
type Topics struct {
	prefix string
}

// NewTopics creates a Topics helper with the given prefix.
func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

// Prefix returns the topic prefix.
func (t *Topics) Prefix() string {
	return t.prefix
}

func (t *Topics) join(suffix string) string {
	return fmt.Sprintf("%s/%s", t.prefix, suffix)
}

// HeadPan returns the head pan command topic.
func (t *Topics) HeadPan() string { return t.join(TopicHeadPan) }

// HeadNod returns the head nod command topic.
func (t *Topics) HeadNod() string { return t.join(TopicHeadNod) }

// HeadState returns the head state topic.
func (t *Topics) HeadState() string { return t.join(TopicHeadState) }

// Enable returns the robot enable topic.
func (t *Topics) Enable() string { return t.join(TopicEnable) }

// Gamepad returns the remote gamepad topic.
func (t *Topics) Gamepad() string { return t.join(TopicGamepad) }

// Labels returns the operator label topic.
func (t *Topics) Labels() string { return t.join(TopicLabels) }

// LimbCommand returns the joint command topic for a limb ("left", "right").
func (t *Topics) LimbCommand(side string) string {
	return t.join(fmt.Sprintf("robot/limb/%s/joint_command", side))
}

// LimbState returns the joint state topic for a limb.
func (t *Topics) LimbState(side string) string {
	return t.join(fmt.Sprintf("robot/limb/%s/joint_states", side))
}

// Gripper returns the gripper command topic for a side.
func (t *Topics) Gripper(side string) string {
	return t.join(fmt.Sprintf("robot/limb/%s/accessory/gripper/command", side))
}
