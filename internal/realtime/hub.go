// Package realtime pushes seat and flight events to browsers watching a
// flight's seat map over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pkordes/flight-booking/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
	backlog    = 256
)

// ErrBacklog is returned by Publish when the hub cannot keep up.
var ErrBacklog = errors.New("realtime: broadcast backlog full")

// client is one websocket connection subscribed to a single flight.
type client struct {
	conn     *websocket.Conn
	send     chan []byte
	flightID uuid.UUID
}

// Hub fans events out to the clients of each flight.
// Only the Run goroutine mutates the client registry.
type Hub struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	clients    map[uuid.UUID]map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan domain.SeatEvent
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a Hub. allowedOrigins is matched against the Origin header
// of upgrade requests; "*" allows any origin and requests without an Origin
// header (non-browser clients) are always accepted.
func NewHub(log *slog.Logger, allowedOrigins []string) *Hub {
	h := &Hub{
		log:        log,
		clients:    make(map[uuid.UUID]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan domain.SeatEvent, backlog),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run owns the client registry until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for flightID, set := range h.clients {
				for c := range set {
					close(c.send)
				}
				delete(h.clients, flightID)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.flightID] == nil {
				h.clients[c.flightID] = make(map[*client]struct{})
			}
			h.clients[c.flightID][c] = struct{}{}
			n := len(h.clients[c.flightID])
			h.mu.Unlock()
			h.log.Debug("websocket client registered", "flight_id", c.flightID, "clients", n)

		case c := <-h.unregister:
			h.remove(c)

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("websocket marshal event", "error", err)
				continue
			}

			h.mu.RLock()
			targets := make([]*client, 0, len(h.clients[ev.FlightID]))
			for c := range h.clients[ev.FlightID] {
				targets = append(targets, c)
			}
			h.mu.RUnlock()

			for _, c := range targets {
				select {
				case c.send <- data:
				default:
					// Slow consumer: drop it rather than stall every other flight.
					h.remove(c)
				}
			}
		}
	}
}

// remove deletes c from the registry and closes its send channel once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.flightID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.flightID)
	}
	h.log.Debug("websocket client unregistered", "flight_id", c.flightID, "clients", len(set))
}

// Publish queues ev for delivery without blocking the caller.
func (h *Hub) Publish(ctx context.Context, ev domain.SeatEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBacklog
	}
}

// ClientCount returns the number of clients watching flightID.
func (h *Hub) ClientCount(flightID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[flightID])
}

// ServeFlight upgrades the request and streams flightID's events to it until
// either side closes the connection.
func (h *Hub) ServeFlight(w http.ResponseWriter, r *http.Request, flightID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response.
		h.log.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer), flightID: flightID}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards inbound messages; it exists to process control frames
// and notice when the peer goes away.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read", "flight_id", c.flightID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
