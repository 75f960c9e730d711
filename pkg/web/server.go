// Package web serves a live preview dashboard for a reframing run: the
// current run status, a stream of render records, and an optional JPEG
// preview feed, all pushed over websockets.
package web

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/autoframe/autoframe/internal/log"
	"github.com/autoframe/autoframe/pkg/engine"
	"github.com/autoframe/autoframe/pkg/hub"
)

// Status is the run state shown on the dashboard.
type Status struct {
	RunID       string `json:"run_id"`
	InputPath   string `json:"input_path"`
	Processing  bool   `json:"processing"`
	FrameCount  int    `json:"frame_count"`
	SceneCount  int    `json:"scene_count"`
	LastMotion  string `json:"last_motion"`
	PaddedScene bool   `json:"padded_scene"`
}

const (
	recordBufferSize  = 500
	summaryBufferSize = 100
)

// Server is the preview dashboard server. Its Publish methods are safe to
// call from the processing goroutine while the fiber app serves clients.
type Server struct {
	app  *fiber.App
	port string

	state   Status
	stateMu sync.RWMutex

	records   []engine.RenderRecord
	recordsMu sync.RWMutex

	summaries   []engine.SceneSummary
	summariesMu sync.RWMutex

	statusHub  *hub.Hub
	recordHub  *hub.Hub
	previewHub *hub.Hub
}

// NewServer builds the dashboard for the given port.
func NewServer(port string) *Server {
	s := &Server{
		port:       port,
		records:    make([]engine.RenderRecord, 0, recordBufferSize),
		summaries:  make([]engine.SceneSummary, 0, summaryBufferSize),
		statusHub:  hub.New("status"),
		recordHub:  hub.New("records"),
		previewHub: hub.New("preview"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Autoframe Preview",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/records", s.handleRecords)
	api.Get("/scenes", s.handleScenes)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/records", websocket.New(s.handleRecordsWS))
	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))

	s.app = app
	return s
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	log.Info("preview dashboard listening", "addr", "http://localhost:"+s.port)
	go s.statusHub.Run()
	go s.recordHub.Run()
	go s.previewHub.Run()
	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("preview server stopped", "error", err)
		}
	}()
}

// UpdateStatus mutates the run status under lock and broadcasts the result.
func (s *Server) UpdateStatus(update func(*Status)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// PublishRecord buffers and broadcasts one render record. It satisfies the
// engine's record sink signature.
func (s *Server) PublishRecord(r engine.RenderRecord) error {
	s.recordsMu.Lock()
	s.records = append(s.records, r)
	if len(s.records) > recordBufferSize {
		s.records = s.records[1:]
	}
	s.recordsMu.Unlock()

	return s.recordHub.BroadcastJSON(r)
}

// PublishSummary buffers one scene summary and refreshes the status.
func (s *Server) PublishSummary(sum engine.SceneSummary) error {
	s.summariesMu.Lock()
	s.summaries = append(s.summaries, sum)
	if len(s.summaries) > summaryBufferSize {
		s.summaries = s.summaries[1:]
	}
	s.summariesMu.Unlock()

	s.UpdateStatus(func(st *Status) {
		st.SceneCount++
		st.FrameCount += sum.FrameCount
		st.LastMotion = sum.CameraMotion.String()
		st.PaddedScene = sum.PaddingApplied
	})
	return nil
}

// PublishPreviewFrame broadcasts an encoded preview frame to viewers.
func (s *Server) PublishPreviewFrame(jpegData []byte) {
	s.previewHub.BroadcastBinary(jpegData)
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
