// Package realtime pushes occupancy snapshots to dashboard clients over
// WebSocket.  Delivery is best effort: a client whose buffer is full is
// disconnected and never retried.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/space-reservation/internal/queue"
	"github.com/iliyamo/space-reservation/internal/service"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = pongTimeout * 9 / 10
	maxReadBytes = 1024
)

// Message types.
const (
	TypeSnapshot         = "snapshot"
	TypeReservationEvent = "reservation_event"
)

// Message is the JSON frame sent to clients.
type Message struct {
	Type     string                  `json:"type"`
	Event    *queue.ReservationEvent `json:"event,omitempty"`
	Snapshot *service.Snapshot       `json:"snapshot"`
}

// SnapshotSource computes the payload pushed to clients.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*service.Snapshot, error)
}

// Client is one dashboard connection.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub owns the set of clients.  Only the Run goroutine touches the set and
// closes send channels.
type Hub struct {
	source SnapshotSource
	logger *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	refresh    chan *queue.ReservationEvent
	done       chan struct{}

	clients  map[*Client]bool
	count    atomic.Int64
	upgrader websocket.Upgrader
}

// NewHub returns a hub; call Run to start it.
func NewHub(source SnapshotSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		source:     source,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		refresh:    make(chan *queue.ReservationEvent, 1),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	go h.refresher(ctx)
	defer func() {
		close(h.done)
		for c := range h.clients {
			h.drop(c)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = true
			h.count.Add(1)
		case c := <-h.unregister:
			if h.clients[c] {
				h.drop(c)
			}
		case payload := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					h.logger.Warn("dashboard client too slow; disconnecting")
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.count.Add(-1)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// Broadcast queues payload for every client.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// Refresh computes a snapshot and broadcasts it.
func (h *Hub) Refresh(ctx context.Context) error {
	payload, err := h.message(ctx, TypeSnapshot, nil)
	if err != nil {
		return err
	}
	h.Broadcast(payload)
	return nil
}

// Publish implements queue.Publisher.  The snapshot is computed off the
// caller's goroutine; events arriving while one is pending are coalesced.
func (h *Hub) Publish(_ context.Context, ev queue.ReservationEvent) error {
	select {
	case h.refresh <- &ev:
	default:
	}
	return nil
}

func (h *Hub) refresher(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-h.refresh:
			payload, err := h.message(ctx, TypeReservationEvent, ev)
			if err != nil {
				h.logger.Error("dashboard snapshot failed", "err", err)
				continue
			}
			h.Broadcast(payload)
		}
	}
}

func (h *Hub) message(ctx context.Context, typ string, ev *queue.ReservationEvent) ([]byte, error) {
	snap, err := h.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: typ, Event: ev, Snapshot: snap})
}

// ServeWS upgrades the request, sends the current snapshot and then streams
// every broadcast until the client goes away.  Authentication happens in
// middleware before this handler.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return nil
	}
	client := &Client{conn: conn, send: make(chan []byte, sendBuffer)}

	if payload, err := h.message(c.Request().Context(), TypeSnapshot, nil); err != nil {
		h.logger.Error("dashboard snapshot failed", "err", err)
	} else {
		client.send <- payload
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return nil
	}

	go h.readPump(client)
	h.writePump(client)
	return nil
}

// readPump discards client input and detects disconnects.
func (h *Hub) readPump(c *Client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
