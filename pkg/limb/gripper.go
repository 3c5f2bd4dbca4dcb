package limb

import (
	"log/slog"

	"github.com/teslashibe/go-rsdk/pkg/protocol"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

// Gripper is a fire-and-forget end-effector interface.
type Gripper struct {
	side   string
	pub    transport.Publisher
	topic  string
	logger *slog.Logger
}

// NewGripper creates the gripper interface for side.
func NewGripper(pub transport.Publisher, side string, opts Options) *Gripper {
	opts, topics := opts.withDefaults("gripper")
	return &Gripper{
		side:   side,
		pub:    pub,
		topic:  topics.Gripper(side),
		logger: opts.Logger.With("side", side),
	}
}

// Open opens the gripper.
func (g *Gripper) Open() error {
	return g.send(protocol.GripperOpen)
}

// Close closes the gripper.
func (g *Gripper) Close() error {
	return g.send(protocol.GripperClose)
}

func (g *Gripper) send(action protocol.GripperAction) error {
	data, err := protocol.EncodeGripper(action)
	if err != nil {
		return err
	}
	g.logger.Debug("gripper command", "action", action)
	return g.pub.Publish(g.topic, data)
}
