package limb

import (
	"log/slog"

	"github.com/teslashibe/go-rsdk/pkg/protocol"
	"github.com/teslashibe/go-rsdk/pkg/transport"
)

// RobotEnable switches the robot's motors on and off.
type RobotEnable struct {
	pub    transport.Publisher
	topic  string
	logger *slog.Logger
}

// NewRobotEnable creates a RobotEnable.
func NewRobotEnable(pub transport.Publisher, opts Options) *RobotEnable {
	opts, topics := opts.withDefaults("enable")
	return &RobotEnable{pub: pub, topic: topics.Enable(), logger: opts.Logger}
}

// Enable enables the robot.
func (r *RobotEnable) Enable() error {
	r.logger.Info("enabling robot")
	return r.set(true)
}

// Disable disables the robot.
func (r *RobotEnable) Disable() error {
	r.logger.Info("disabling robot")
	return r.set(false)
}

func (r *RobotEnable) set(on bool) error {
	data, err := protocol.EncodeEnable(on)
	if err != nil {
		return err
	}
	return r.pub.Publish(r.topic, data)
}
