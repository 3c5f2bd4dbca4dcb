package teleop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/dispatch"
)

// Enabler switches the robot on and off.
type Enabler interface {
	Enable() error
	Disable() error
}

// Session is one teleoperation run: enable the robot, dispatch until the
// operator stops or the process shuts down.
type Session struct {
	Engine *dispatch.Engine
	Robot  Enabler
	Logger *slog.Logger
}

// Run enables the robot and runs the engine. The robot is disabled only
// when the operator stopped the session; on shutdown it is left as is.
func (s Session) Run(ctx context.Context) (dispatch.Termination, error) {
	logger := log.Or(s.Logger, "teleop")

	if err := s.Robot.Enable(); err != nil {
		return dispatch.Shutdown, fmt.Errorf("enable robot: %w", err)
	}

	logger.Info("press any key to stop")
	term, err := s.Engine.Run(ctx)
	if err != nil {
		return term, err
	}

	switch term {
	case dispatch.UserStopped:
		if err := s.Robot.Disable(); err != nil {
			return term, fmt.Errorf("disable robot: %w", err)
		}
		logger.Info("robot disabled")
	default:
		logger.Info("terminated")
	}
	return term, nil
}
