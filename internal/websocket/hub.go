package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/internal/metrics"
	"github.com/satriahrh/jurubahasa/usecase"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub owns the in-memory sessions and the websocket clients attached to them.
// Each session has at most one client; a new connection replaces the old one.
type Hub struct {
	// Sessions by ID.
	sessions map[string]*usecase.SessionPipeline

	// Connected clients by session ID.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	mu sync.RWMutex

	interpreter *usecase.InterpreterService
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewHub creates a new session hub
func NewHub(interpreter *usecase.InterpreterService, m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		sessions:    make(map[string]*usecase.SessionPipeline),
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		interpreter: interpreter,
		metrics:     m,
		logger:      logger,
	}
}

// Run handles client registration until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.sessionID]; ok {
				old.stop()
			}
			h.clients[client.sessionID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("sessionID", client.sessionID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.sessionID]; ok && current == client {
				delete(h.clients, client.sessionID)
			}
			h.mu.Unlock()
			client.stop()
			h.logger.Info("Client unregistered", zap.String("sessionID", client.sessionID))
		}
	}
}

// CreateSession starts a new session for a language pair
func (h *Hub) CreateSession(source, target string) (*usecase.SessionPipeline, error) {
	pipeline, err := h.interpreter.NewSession(source, target)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.sessions[pipeline.ID()] = pipeline
	h.mu.Unlock()

	h.metrics.SessionOpened()
	return pipeline, nil
}

// Session looks up a session by ID
func (h *Hub) Session(id string) (*usecase.SessionPipeline, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	pipeline, ok := h.sessions[id]
	return pipeline, ok
}

// CloseSession removes a session and disconnects its client
func (h *Hub) CloseSession(id string) bool {
	if !h.removeSession(id, false) {
		return false
	}
	h.logger.Info("Session closed", zap.String("sessionID", id))
	return true
}

// EvictIdle removes sessions inactive for longer than timeout
func (h *Hub) EvictIdle(now time.Time, timeout time.Duration) []string {
	h.mu.RLock()
	var idle []string
	for id, pipeline := range h.sessions {
		if pipeline.IdleFor(now) > timeout {
			idle = append(idle, id)
		}
	}
	h.mu.RUnlock()

	evicted := idle[:0]
	for _, id := range idle {
		if h.removeSession(id, true) {
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// Len returns the number of sessions held in memory
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Close removes every session
func (h *Hub) Close() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.removeSession(id, false)
	}
}

func (h *Hub) removeSession(id string, expired bool) bool {
	h.mu.Lock()
	pipeline, ok := h.sessions[id]
	if !ok {
		h.mu.Unlock()
		return false
	}
	delete(h.sessions, id)
	client := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	pipeline.Close()
	if client != nil {
		client.stop()
	}
	h.metrics.SessionClosed(expired)
	return true
}

// HandleWebSocket upgrades the request and attaches the connection to a session
func (h *Hub) HandleWebSocket(c echo.Context, sessionID string) error {
	pipeline, ok := h.Session(sessionID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := newClient(h, conn, pipeline, h.logger.With(zap.String("sessionID", sessionID)))

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}
