// Package joystick turns raw gamepad snapshots into named, edge-detected
// controls that a dispatch engine can poll once per tick.
package joystick

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/protocol"
)

// DefaultDeadzone filters stick noise around center.
const DefaultDeadzone = 0.05

// Joystick is a polled input device.
//
// Update may be called from any goroutine (a websocket or bus handler).
// Poll, Axis and the button queries belong to the loop goroutine: Poll
// latches the most recent snapshot and shifts the previous one, so
// ButtonDown and ButtonUp report edges between consecutive polls.
type Joystick struct {
	layout   Layout
	deadzone float64
	logger   *slog.Logger

	mu     sync.Mutex
	latest protocol.GamepadState

	axes map[string]float64
	cur  map[string]bool
	prev map[string]bool
}

// New creates a joystick for layout.
func New(layout Layout, deadzone float64) *Joystick {
	if deadzone < 0 {
		deadzone = 0
	}
	return &Joystick{
		layout:   layout,
		deadzone: deadzone,
		logger:   log.Component("joystick").With("layout", layout.Name),
		axes:     make(map[string]float64),
		cur:      make(map[string]bool),
		prev:     make(map[string]bool),
	}
}

// ByName returns a joystick for a layout name ("xbox" or "logitech").
func ByName(name string) (*Joystick, error) {
	layout, ok := Layouts[name]
	if !ok {
		return nil, fmt.Errorf("unsupported joystick type '%s'", name)
	}
	return New(layout, DefaultDeadzone), nil
}

// Layout returns the controller layout.
func (j *Joystick) Layout() Layout { return j.layout }

// Update stores the latest raw snapshot.
func (j *Joystick) Update(s protocol.GamepadState) {
	j.mu.Lock()
	j.latest = s
	j.mu.Unlock()
}

// Handler decodes gamepad messages from a bus subscription.
func (j *Joystick) Handler() func([]byte) {
	return func(data []byte) {
		s, err := protocol.DecodeGamepad(data)
		if err != nil {
			j.logger.Debug("bad gamepad message", "error", err)
			return
		}
		j.Update(s)
	}
}

// Poll latches the latest snapshot. Call it once per loop tick.
func (j *Joystick) Poll() {
	j.mu.Lock()
	s := j.latest
	j.mu.Unlock()

	j.prev, j.cur = j.cur, j.prev
	clear(j.cur)
	for name, i := range j.layout.Buttons {
		j.cur[name] = i < len(s.Buttons) && s.Buttons[i]
	}

	clear(j.axes)
	for name, i := range j.layout.Axes {
		if i >= len(s.Axes) {
			continue
		}
		v := s.Axes[i]
		if j.layout.Inverted[name] {
			v = -v
		}
		if math.Abs(v) < j.deadzone {
			v = 0
		}
		j.axes[name] = v
	}
}

// Axis returns a stick value in [-1, 1] as of the last Poll.
func (j *Joystick) Axis(name string) float64 {
	return j.axes[name]
}

// StickHigh reports whether a stick is deflected positive.
func (j *Joystick) StickHigh(name string) bool { return j.Axis(name) > 0 }

// StickLow reports whether a stick is deflected negative.
func (j *Joystick) StickLow(name string) bool { return j.Axis(name) < 0 }

// Pressed reports whether a button is held.
func (j *Joystick) Pressed(name string) bool { return j.cur[name] }

// ButtonDown reports whether a button went down between the last two polls.
func (j *Joystick) ButtonDown(name string) bool {
	return j.cur[name] && !j.prev[name]
}

// ButtonUp reports whether a button was released between the last two polls.
func (j *Joystick) ButtonUp(name string) bool {
	return !j.cur[name] && j.prev[name]
}
