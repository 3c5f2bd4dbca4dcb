// Package dashboard provides the operator dashboard: a status API, a live
// stream of fired binding labels, browser gamepad input and Prometheus
// metrics.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fws "github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-rsdk/internal/log"
	"github.com/teslashibe/go-rsdk/pkg/hub"
	"github.com/teslashibe/go-rsdk/pkg/metrics"
	"github.com/teslashibe/go-rsdk/pkg/protocol"
)

// maxRecentLabels bounds the label history served by /api/labels.
const maxRecentLabels = 500

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Registry is scraped by /metrics. Defaults to metrics.Registry.
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// LabelEntry is a fired binding label with its time.
type LabelEntry struct {
	Time  string `json:"time"`
	Label string `json:"label"`
}

// Server is the dashboard server
type Server struct {
	app     *fiber.App
	addr    string
	logger  *slog.Logger
	started time.Time

	// Hub for websocket broadcast of labels
	labels *hub.Hub

	recent   []LabelEntry
	recentMu sync.RWMutex

	mu          sync.RWMutex
	controllers map[string]*controller
	onGamepad   func(id string, s protocol.GamepadState)
	status      map[string]func() any
}

// New creates a dashboard server.
func New(opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = metrics.Registry
	}
	logger := log.Or(opts.Logger, "dashboard")

	s := &Server{
		addr:        opts.Addr,
		logger:      logger,
		started:     time.Now(),
		labels:      hub.New("labels", logger),
		recent:      make([]LabelEntry, 0, maxRecentLabels),
		controllers: make(map[string]*controller),
		status:      make(map[string]func() any),
	}

	app := fiber.New(fiber.Config{
		AppName:               "rsdk dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/labels", s.handleLabels)
	api.Get("/controllers", s.handleControllers)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if fws.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/labels", fws.New(s.labels.Serve))
	s.registerGamepadRoutes(app)

	s.app = app
	return s
}

// App returns the fiber app (tests and embedding).
func (s *Server) App() *fiber.App {
	return s.app
}

// Emit records a fired binding label and streams it to /ws/labels
// clients. It implements dispatch.LabelSink.
func (s *Server) Emit(label string) {
	entry := LabelEntry{
		Time:  time.Now().Format("15:04:05.000"),
		Label: label,
	}

	s.recentMu.Lock()
	s.recent = append(s.recent, entry)
	if len(s.recent) > maxRecentLabels {
		s.recent = s.recent[1:]
	}
	s.recentMu.Unlock()

	s.labels.Emit(label)
}

// AddStatus adds a named section to /api/status. fn is called on every
// request and must be safe for concurrent use.
func (s *Server) AddStatus(name string, fn func() any) {
	s.mu.Lock()
	s.status[name] = fn
	s.mu.Unlock()
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.labels.Run(hubCtx)

	s.logger.Info("dashboard listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		stopHub()
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		return nil
	}
}

// Status is the /api/status document.
type Status struct {
	Uptime      string         `json:"uptime"`
	Labels      hub.Stats      `json:"labels"`
	Controllers int            `json:"controllers"`
	Sections    map[string]any `json:"sections,omitempty"`
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.mu.RLock()
	st := Status{
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Labels:      s.labels.Stats(),
		Controllers: len(s.controllers),
		Sections:    make(map[string]any, len(s.status)),
	}
	providers := make(map[string]func() any, len(s.status))
	for name, fn := range s.status {
		providers[name] = fn
	}
	s.mu.RUnlock()

	for name, fn := range providers {
		st.Sections[name] = fn()
	}
	return c.JSON(st)
}

func (s *Server) handleLabels(c *fiber.Ctx) error {
	s.recentMu.RLock()
	defer s.recentMu.RUnlock()
	return c.JSON(s.recent)
}
