// Package live streams registry and request updates to websocket clients.
package live

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/respondhq/respond/core/logger"
)

// Frame is the envelope written to websocket clients.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans out JSON frames to connected websocket clients. Slow or dead
// clients are dropped on write failure.
type Hub struct {
	upgrader websocket.Upgrader
	log      logger.Logger

	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	last     *Frame
	onSelect func(id string)
}

// NewHub creates an empty Hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// OnSelect registers the callback invoked when a client sends a select frame.
// Must be called before the hub serves connections.
func (h *Hub) OnSelect(fn func(id string)) {
	h.onSelect = fn
}

// Handler upgrades incoming requests and registers the connection.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			if h.log != nil {
				h.log.Warnf("ws upgrade: %v", err)
			}
			return
		}
		h.add(conn)
		go h.readPump(conn)

		// Replay the latest frame so new clients render immediately.
		h.mu.Lock()
		last := h.last
		h.mu.Unlock()
		if last != nil {
			h.write(conn, *last)
		}
	})
}

// Broadcast sends a frame to every connected client.
func (h *Hub) Broadcast(frameType string, data any) {
	frame := Frame{Type: frameType, Data: data}
	h.mu.Lock()
	h.last = &frame
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		h.write(c, frame)
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		_ = c.Close()
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) write(c *websocket.Conn, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		if h.log != nil {
			h.log.Errorf("marshal frame: %v", err)
		}
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = c.Close()
		h.remove(c)
	}
}

// readPump consumes inbound frames. Clients are read-only except for select
// frames, which move the request selection; everything else is discarded.
func (h *Hub) readPump(c *websocket.Conn) {
	defer func() {
		h.remove(c)
		_ = c.Close()
	}()
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		var in struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		}
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		if in.Type == "select" && h.onSelect != nil {
			h.onSelect(in.ID)
		}
	}
}
