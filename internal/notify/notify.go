package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"photo-catalog/internal/logging"
	"photo-catalog/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client outbound queue. A client that cannot
	// keep up is dropped rather than allowed to block ingestion.
	sendBuffer = 16
)

// Event is one message pushed to subscribers.
type Event struct {
	Event string `json:"event"`
}

// Hub fans catalog-changed events out to connected websocket clients.
// Broadcasting never blocks: slow clients lose events and eventually
// their connection, not the sender.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single local user; the server only binds loopback-adjacent ports.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// ServeWS upgrades the request and registers the connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	metrics.NotifyClientsConnected.Set(float64(count))

	logging.Debug("notify client connected (%d total)", count)

	go c.writePump(h)
	go c.readPump(h)
}

// CatalogChanged broadcasts the catalog-changed event.
func (h *Hub) CatalogChanged() {
	h.Broadcast("catalog-changed")
}

// Broadcast queues an event for every connected client without blocking.
func (h *Hub) Broadcast(event string) {
	payload, err := json.Marshal(Event{Event: event})
	if err != nil {
		logging.Error("failed to encode %q event: %v", event, err)
		return
	}

	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Client is not draining; close its queue and let the
			// write pump tear the connection down.
			delete(h.clients, c)
			close(c.send)
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.NotifyClientsConnected.Set(float64(count))
	metrics.NotifyEventsTotal.Inc()
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()
	metrics.NotifyClientsConnected.Set(float64(count))
}

// readPump discards inbound messages and detects disconnects.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the send queue and keeps the connection alive with
// pings.
func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
