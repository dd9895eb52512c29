package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"playsight/pkg/detect"
	"playsight/pkg/hub"
	"playsight/pkg/session"
)

// Status is the session status shown as passive text on the dashboard.
type Status struct {
	State       string        `json:"state"`
	Playing     bool          `json:"playing"`
	Stats       session.Stats `json:"stats"`
	HistoryLen  int           `json:"history_len"`
	OverlayFeed int           `json:"overlay_clients"`
}

func (s *Server) status() Status {
	return Status{
		State:       s.sampler.State().String(),
		Playing:     s.sampler.Playing(),
		Stats:       s.sampler.Stats(),
		HistoryLen:  s.history.Len(),
		OverlayFeed: s.overlayHub.ClientCount(),
	}
}

// handleStatus returns the current session status.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

// handleHistory returns past detection rounds, newest first.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	return c.JSON(s.history.Recent())
}

// handleGetConfig returns the live thresholds.
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.settings.Snapshot())
}

// handleSetConfig updates the live thresholds. Rounds already in flight
// keep the snapshot they captured at send time.
func (s *Server) handleSetConfig(c *fiber.Ctx) error {
	var thr detect.Thresholds
	if err := c.BodyParser(&thr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := s.settings.Update(thr); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(s.settings.Snapshot())
}

// handleHealth proxies the inference service's opaque status string.
// Display only; errors surface as text, never stop the pipeline.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	status, err := s.detector.HealthCheck(c.UserContext())
	if err != nil {
		return c.JSON(fiber.Map{"status": "unreachable", "detail": err.Error()})
	}
	return c.JSON(fiber.Map{"status": status})
}

// LoadModelRequest is the body of POST /api/model.
type LoadModelRequest struct {
	ModelName string `json:"model_name"`
}

// handleLoadModel asks the service to switch models. Off the hot path.
func (s *Server) handleLoadModel(c *fiber.Ctx) error {
	var req LoadModelRequest
	if err := c.BodyParser(&req); err != nil || req.ModelName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "model_name required"})
	}

	status, err := s.detector.LoadModel(c.UserContext(), req.ModelName)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": status})
}

// handlePlay starts playback and arms the sampler.
func (s *Server) handlePlay(c *fiber.Ctx) error {
	if s.OnPlay == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "playback not configured"})
	}
	if err := s.OnPlay(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	s.PublishStatus()
	return c.JSON(s.status())
}

// handlePause stops playback and the sampler.
func (s *Server) handlePause(c *fiber.Ctx) error {
	if s.OnPause == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "playback not configured"})
	}
	if err := s.OnPause(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	s.PublishStatus()
	return c.JSON(s.status())
}

// ViewportRequest is the body of POST /api/viewport.
type ViewportRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// handleViewport reports a display-surface resize. The renderer rebuilds
// its surface and repaints the last round under the new transform.
func (s *Server) handleViewport(c *fiber.Ctx) error {
	var req ViewportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if req.Width <= 0 || req.Height <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "width and height must be positive"})
	}

	if s.OnViewport != nil {
		if err := s.OnViewport(req.Width, req.Height); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleOverlayWS streams rendered overlay JPEGs.
func (s *Server) handleOverlayWS(c *websocket.Conn) {
	client := hub.NewClient(s.overlayHub, c)
	client.Run()
}

// handleStatusWS streams session status updates.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	client := hub.NewClient(s.statusHub, c)
	client.Run()
}
