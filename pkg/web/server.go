// Package web provides the playback dashboard: a REST API over the
// session plus websocket streams of rendered overlay frames and status.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"playsight/internal/log"
	"playsight/pkg/detect"
	"playsight/pkg/history"
	"playsight/pkg/hub"
	"playsight/pkg/session"
)

// Server is the dashboard server. The browser is a passive display: it
// receives rendered overlay JPEGs and status text; all pipeline control
// happens through the REST API.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	history  *history.History
	settings *session.Settings
	sampler  *session.Sampler
	detector *detect.Client

	overlayHub *hub.Hub
	statusHub  *hub.Hub

	// Playback control callbacks, wired by the main binary.
	OnPlay  func() error
	OnPause func() error

	// OnViewport fires when a client reports a new display size.
	OnViewport func(width, height int) error
}

// New creates the dashboard server.
func New(port string, hist *history.History, settings *session.Settings, sampler *session.Sampler, detector *detect.Client) *Server {
	s := &Server{
		port:       port,
		logger:     log.With("component", "web.server"),
		history:    hist,
		settings:   settings,
		sampler:    sampler,
		detector:   detector,
		overlayHub: hub.New("overlay"),
		statusHub:  hub.New("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "playsight",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/history", s.handleHistory)
	api.Get("/config", s.handleGetConfig)
	api.Post("/config", s.handleSetConfig)
	api.Get("/health", s.handleHealth)
	api.Post("/model", s.handleLoadModel)
	api.Post("/play", s.handlePlay)
	api.Post("/pause", s.handlePause)
	api.Post("/viewport", s.handleViewport)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/overlay", websocket.New(s.handleOverlayWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and listens. Blocks.
func (s *Server) Start() error {
	s.logger.Info("dashboard listening", "port", s.port)

	go s.overlayHub.Run()
	go s.statusHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server stopped", "error", err)
		}
	}()
}

// SendOverlayFrame broadcasts a rendered overlay JPEG to all viewers.
func (s *Server) SendOverlayFrame(jpeg []byte) {
	s.overlayHub.BroadcastBinary(jpeg)
}

// PublishStatus broadcasts the current session status.
func (s *Server) PublishStatus() {
	s.statusHub.BroadcastJSON(s.status())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
