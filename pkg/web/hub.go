package web

import (
	"encoding/json"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/steerline/go-steerline/internal/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// hub fans JSON messages out to every connected dashboard client using
// the channel-based register/broadcast pattern. Slow clients are
// dropped rather than allowed to stall the steering telemetry.
type hub struct {
	name       string
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
}

func newHub(name string) *hub {
	return &hub{
		name:       name,
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// run owns the client set; call in a goroutine.
func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			log.Debug("dashboard client connected", "hub", h.name, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			log.Debug("dashboard client disconnected", "hub", h.name, "clients", len(h.clients))

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
					log.Debug("dropped slow dashboard client", "hub", h.name)
				}
			}
		}
	}
}

// broadcastJSON encodes v and queues it for every client. Drops the
// message when the broadcast queue is full; telemetry is best-effort.
func (h *hub) broadcastJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn("telemetry encode failed", "hub", h.name, "err", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

// client is one websocket connection.
type client struct {
	hub  *hub
	conn *websocket.Conn
	send chan []byte
}

// serve registers the connection and pumps it until it closes.
// Called from the websocket handler; blocks for the connection's life.
func (h *hub) serve(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, send: make(chan []byte, 64)}
	h.register <- c
	go c.writePump()
	c.readPump()
}

// readPump discards inbound messages; it exists to detect disconnects
// and service pongs.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
