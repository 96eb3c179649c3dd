// internal/api/stream.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rovshanmuradov/openpump/internal/events"
	"github.com/rovshanmuradov/openpump/internal/utils/metrics"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Stream is public and read-only
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientMessage is what stream clients may send.
type clientMessage struct {
	Type string `json:"type"`
}

// Hub fans bus events out to websocket clients.
//
// The bus handler never blocks: each client has a bounded send queue and a
// client whose queue is full misses the event.
type Hub struct {
	status  StatusFunc
	metrics *metrics.Collector
	logger  *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	sub     events.Subscription
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHub subscribes to every bus event type. status and m may be nil.
func NewHub(bus *events.Bus, status StatusFunc, m *metrics.Collector, logger *zap.Logger) *Hub {
	h := &Hub{
		status:  status,
		metrics: m,
		logger:  logger.Named("stream"),
		clients: make(map[*client]struct{}),
	}
	h.sub = bus.Subscribe(events.HandlerFunc(h.broadcast),
		events.NewToken, events.TokenEnriched, events.Trade)
	return h
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close unsubscribes from the bus and disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	h.sub.Unsubscribe()
	for c := range clients {
		c.close()
	}
	h.metrics.SetWebsocketClients(0)
}

func (h *Hub) broadcast(_ context.Context, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.metrics.RecordDrop("ws_client_full")
			h.logger.Debug("Stream client too slow, dropping event",
				zap.String("event_type", string(ev.Type())),
				zap.String("remote", c.conn.RemoteAddr().String()))
		}
	}
	return nil
}

func (h *Hub) currentStatus() interface{} {
	if h.status == nil {
		return nil
	}
	return h.status()
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	h.enqueue(c, map[string]interface{}{
		"type":      "connected",
		"message":   "Connected to OpenPump real-time stream",
		"timestamp": time.Now().UnixMilli(),
		"status":    h.currentStatus(),
	})

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetWebsocketClients(n)
	h.logger.Info("Stream client connected",
		zap.String("remote", c.conn.RemoteAddr().String()),
		zap.Int("clients", n))
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		h.metrics.SetWebsocketClients(n)
		h.logger.Info("Stream client disconnected",
			zap.String("remote", c.conn.RemoteAddr().String()),
			zap.Int("clients", n))
	}
}

// enqueue sends a reply to one client without blocking.
func (h *Hub) enqueue(c *client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode stream message", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Stream client read error", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// unparseable client messages are ignored
			continue
		}
		switch msg.Type {
		case "ping":
			h.enqueue(c, map[string]interface{}{
				"type":      "pong",
				"timestamp": time.Now().UnixMilli(),
			})
		case "status":
			h.enqueue(c, map[string]interface{}{
				"type":      "status",
				"data":      h.currentStatus(),
				"timestamp": time.Now().UnixMilli(),
			})
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
