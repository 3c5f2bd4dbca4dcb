package dashboard

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-rsdk/pkg/protocol"
)

// controller is a browser gamepad streaming over /ws/gamepad.
type controller struct {
	id        string
	connected time.Time
	messages  atomic.Uint64

	mu       sync.Mutex
	lastSeen time.Time
}

// ControllerInfo contains info about a connected controller
type ControllerInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
	Messages  uint64    `json:"messages"`
}

// OnGamepad sets the callback for incoming gamepad snapshots.
func (s *Server) OnGamepad(fn func(id string, st protocol.GamepadState)) {
	s.mu.Lock()
	s.onGamepad = fn
	s.mu.Unlock()
}

func (s *Server) registerGamepadRoutes(app *fiber.App) {
	app.Get("/ws/gamepad", websocket.New(s.handleGamepad))
	app.Get("/ws/gamepad/:id", websocket.New(s.handleGamepad))
}

// handleGamepad reads gamepad snapshots from a browser until it
// disconnects.
func (s *Server) handleGamepad(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()
	}

	ctl := &controller{id: id, connected: time.Now(), lastSeen: time.Now()}

	s.mu.Lock()
	s.controllers[id] = ctl
	count := len(s.controllers)
	s.mu.Unlock()
	s.logger.Info("controller connected", "id", id, "controllers", count)

	defer func() {
		s.mu.Lock()
		if s.controllers[id] == ctl {
			delete(s.controllers, id)
		}
		count := len(s.controllers)
		s.mu.Unlock()
		s.logger.Info("controller disconnected", "id", id, "controllers", count)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		ctl.mu.Lock()
		ctl.lastSeen = time.Now()
		ctl.mu.Unlock()
		ctl.messages.Add(1)

		st, err := protocol.DecodeGamepad(data)
		if err != nil {
			s.logger.Debug("bad gamepad message", "id", id, "error", err)
			continue
		}

		s.mu.RLock()
		cb := s.onGamepad
		s.mu.RUnlock()
		if cb != nil {
			cb(id, st)
		}
	}
}

// Controllers returns info about all connected controllers
func (s *Server) Controllers() []ControllerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]ControllerInfo, 0, len(s.controllers))
	for _, ctl := range s.controllers {
		ctl.mu.Lock()
		infos = append(infos, ControllerInfo{
			ID:        ctl.id,
			Connected: ctl.connected,
			LastSeen:  ctl.lastSeen,
			Messages:  ctl.messages.Load(),
		})
		ctl.mu.Unlock()
	}
	return infos
}

func (s *Server) handleControllers(c *fiber.Ctx) error {
	infos := s.Controllers()
	return c.JSON(fiber.Map{
		"controllers": infos,
		"count":       len(infos),
	})
}
