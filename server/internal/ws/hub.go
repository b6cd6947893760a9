package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/barocast/barocast/server/internal/alerts"
	"github.com/barocast/barocast/server/internal/api"
	"github.com/barocast/barocast/server/internal/store"
)

// Event names carried in Message.Event.
const (
	EventSnapshot   = "snapshot"
	EventTransition = "transition"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Any origin is accepted; CORS belongs to the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients. Data is an
// api.SnapshotResponse for snapshot events and a store.Transition for
// transition events.
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub manages WebSocket client connections. It broadcasts the current
// station snapshot to every client on each interval and pushes forecast
// transitions as soon as they are published.
type Hub struct {
	store    *store.Store
	alerts   *alerts.Engine
	interval time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected WebSocket client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub that reads from st and al and broadcasts every interval.
// al may be nil.
func New(st *store.Store, al *alerts.Engine, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		alerts:   al,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
}

// Run starts the broadcast ticker loop. Run blocks until ctx is cancelled,
// then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			if data, err := h.snapshotMessage(); err == nil {
				h.broadcast(data)
			}
		}
	}
}

// Publish pushes a forecast transition to all connected clients without
// waiting for the next tick. It has the signature expected by
// receiver.Receiver.OnTransition.
func (h *Hub) Publish(tr store.Transition) {
	data, err := json.Marshal(Message{Event: EventTransition, Data: tr})
	if err != nil {
		slog.Error("ws: encode transition", "station", tr.StationID, "err", err)
		return
	}
	h.broadcast(data)
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// It sends the current snapshot immediately on connect, then continues to
// receive broadcasts. Blocks until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	// Queue the current snapshot before registering so the UI has data
	// right away and the channel cannot yet have been closed by the hub.
	if data, err := h.snapshotMessage(); err == nil {
		c.send <- data
	}
	h.register(c)
	defer h.unregister(c)
	slog.Debug("ws: client connected", "remote", r.RemoteAddr)

	go c.writePump()
	c.readPump() // blocks until connection closes
	slog.Debug("ws: client disconnected", "remote", r.RemoteAddr)
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast queues data on every client. Sends happen under the read lock
// so no channel can be closed mid-send; clients whose buffer is full are
// disconnected afterwards.
func (h *Hub) broadcast(data []byte) {
	var slow []*client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("ws: client too slow, disconnecting")
		h.unregister(c)
	}
}

func (h *Hub) snapshotMessage() ([]byte, error) {
	return json.Marshal(Message{
		Event: EventSnapshot,
		Data:  api.BuildSnapshot(h.store, h.alerts),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// writePump drains the client's send channel and forwards messages to the
// WebSocket connection. It also sends periodic ping frames. Runs in its own
// goroutine per client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames to process control messages (pong, close) and
// detect disconnects. Blocks until the connection closes.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
