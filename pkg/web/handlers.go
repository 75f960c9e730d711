package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/autoframe/autoframe/pkg/hub"
)

// handleStatus returns the current run state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleRecords returns the buffered render records.
func (s *Server) handleRecords(c *fiber.Ctx) error {
	s.recordsMu.RLock()
	defer s.recordsMu.RUnlock()
	return c.JSON(s.records)
}

// handleScenes returns the buffered scene summaries.
func (s *Server) handleScenes(c *fiber.Ctx) error {
	s.summariesMu.RLock()
	defer s.summariesMu.RUnlock()
	return c.JSON(s.summaries)
}

// handleStatusWS streams status updates, starting with the current state.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	hub.NewClient(s.statusHub, c).Run()
}

// handleRecordsWS streams render records, replaying the buffer first so a
// late viewer sees recent decisions.
func (s *Server) handleRecordsWS(c *websocket.Conn) {
	s.recordsMu.RLock()
	for _, r := range s.records {
		c.WriteJSON(r)
	}
	s.recordsMu.RUnlock()

	hub.NewClient(s.recordHub, c).Run()
}

// handlePreviewWS streams encoded preview frames.
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	hub.NewClient(s.previewHub, c).Run()
}
