package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/steerline/go-steerline/pkg/steering"
)

// handleStatus returns the current loop snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.pilot.Status())
}

// handleLogs returns recent dashboard events.
func (s *Server) handleLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleGetTuning returns the live controller parameters.
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.pilot.GetTuningParams())
}

// handleSetTuning applies controller parameters mid-drive. Zero-valued
// fields are left untouched, so partial updates are fine.
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params steering.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning payload: " + err.Error(),
		})
	}

	s.pilot.SetTuningParams(params)
	s.AddLog("tuning", "controller parameters updated")
	return c.JSON(s.pilot.GetTuningParams())
}

// handleToggle flips engagement, same as the keyboard hotkey.
func (s *Server) handleToggle(c *fiber.Ctx) error {
	engaged := s.pilot.Toggle()
	return c.JSON(fiber.Map{"engaged": engaged})
}

// handleStatusWS streams throttled status and log events.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	s.statusHub.serve(conn)
}
