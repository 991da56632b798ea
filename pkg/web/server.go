// Package web provides a small live dashboard for the steering loop:
// current status, recent events, and runtime gain tuning.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/steerline/go-steerline/pkg/steering"
)

// statusInterval throttles websocket pushes; the loop runs far faster
// than a dashboard needs to repaint.
const statusInterval = 100 * time.Millisecond

// maxLogEntries bounds the in-memory event buffer.
const maxLogEntries = 500

// PilotControl is what the dashboard needs from the steering loop.
type PilotControl interface {
	Status() steering.Status
	GetTuningParams() steering.TuningParams
	SetTuningParams(steering.TuningParams)
	Toggle() bool
}

// LogEntry is one dashboard event line.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // state, tuning, error
	Message string `json:"message"`
}

// Server is the dashboard server. It implements steering.StateUpdater
// so the pilot can push per-cycle telemetry.
type Server struct {
	app   *fiber.App
	addr  string
	pilot PilotControl

	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub

	pushMu   sync.Mutex
	lastPush time.Time
}

// NewServer creates the dashboard server.
func NewServer(addr string, pilot PilotControl) *Server {
	s := &Server{
		addr:      addr,
		pilot:     pilot,
		logs:      make([]LogEntry, 0, maxLogEntries),
		statusHub: newHub("status"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "steerline dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleLogs)
	api.Get("/tuning", s.handleGetTuning)
	api.Post("/tuning", s.handleSetTuning)
	api.Post("/toggle", s.handleToggle)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hub and listens. Blocks; call in a goroutine.
func (s *Server) Start() error {
	go s.statusHub.run()
	return s.app.Listen(s.addr)
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// UpdateCycle receives per-cycle telemetry from the pilot. Pushes are
// throttled to statusInterval. Must never call back into the pilot.
func (s *Server) UpdateCycle(st steering.Status) {
	s.pushMu.Lock()
	if time.Since(s.lastPush) < statusInterval {
		s.pushMu.Unlock()
		return
	}
	s.lastPush = time.Now()
	s.pushMu.Unlock()

	s.statusHub.broadcastJSON(st)
}

// AddLog records a dashboard event and pushes it to clients.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[len(s.logs)-maxLogEntries:]
	}
	s.logsMu.Unlock()

	s.statusHub.broadcastJSON(fiber.Map{"log": entry})
}
