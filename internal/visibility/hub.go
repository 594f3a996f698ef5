// Package visibility fans the "published output changed" signal out to
// websocket subscribers.
package visibility

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	siteSvc "sitecanvas/internal/domain/services/site"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sitecanvas_event_clients",
		Help: "Currently connected event stream clients",
	})

	eventsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecanvas_events_sent_total",
		Help: "Total publish events queued to clients",
	})

	slowClientsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sitecanvas_event_clients_dropped_total",
		Help: "Total clients disconnected because their send buffer was full",
	})
)

// EventPublished is the only event type on the stream
const EventPublished = "published_changed"

// Event is one message on the stream
type Event struct {
	Type string `json:"type"`
	siteSvc.PublishEvent
	At time.Time `json:"at"`
}

type client struct {
	id   string
	send chan Event
}

// Hub tracks connected clients and broadcasts publish events to all of them.
// It implements siteSvc.Notifier and serves the websocket endpoint.
type Hub struct {
	mu       sync.Mutex
	clients  map[string]*client
	closed   bool
	cfg      *Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a hub; a nil cfg uses DefaultConfig
func NewHub(cfg *Config, logger *slog.Logger) *Hub {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	h := &Hub{
		clients: make(map[string]*client),
		cfg:     cfg,
		logger:  logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.cfg.AllowedOrigins, origin)
}

// PublishedChanged queues the event for every client without blocking.
// Clients whose buffer is full are disconnected.
func (h *Hub) PublishedChanged(_ context.Context, e siteSvc.PublishEvent) {
	event := Event{Type: EventPublished, PublishEvent: e, At: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		select {
		case c.send <- event:
			eventsSent.Inc()
		default:
			h.dropLocked(id)
			slowClientsDropped.Inc()
			h.logger.Warn("event client too slow, disconnecting", "client_id", id)
		}
	}
	h.logger.Debug("publish event broadcast",
		"section_id", e.SectionID,
		"version_id", e.VersionID,
		"reason", e.Reason,
		"clients", len(h.clients),
	)
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.clients {
		h.dropLocked(id)
	}
	h.closed = true
}

func (h *Hub) register() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{id: uuid.NewString(), send: make(chan Event, h.cfg.SendBuffer)}
	h.clients[c.id] = c
	connectedClients.Inc()
	return c, true
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(id)
}

// dropLocked removes a client and closes its queue. Only the remover closes.
func (h *Hub) dropLocked(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
	connectedClients.Dec()
}

// ServeHTTP handles GET /api/events
// Upgrades to a websocket and streams Event messages until either side closes
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("event stream upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	defer conn.Close()

	c, ok := h.register()
	if !ok {
		h.writeClose(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer h.unregister(c.id)

	logger := h.logger.With("client_id", c.id)
	logger.Info("event client connected", "remote_addr", r.RemoteAddr)
	defer logger.Info("event client disconnected")

	// Clients only send control frames; the read loop keeps pongs and close frames flowing
	readTimeout := 2 * h.cfg.KeepAliveInterval
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	keepAlive := NewTickerKeepAlive(h.cfg.KeepAliveInterval)
	stopped := keepAlive.Start(&pingWriter{conn: conn, timeout: h.cfg.WriteTimeout}, logger)
	defer keepAlive.Stop()

	for {
		select {
		case event, open := <-c.send:
			if !open {
				h.writeClose(conn, websocket.CloseGoingAway, "disconnected")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug("event write failed", "error", err)
				return
			}
		case <-gone:
			return
		case <-stopped:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *Hub) writeClose(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(h.cfg.WriteTimeout))
}
