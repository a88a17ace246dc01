// Package dashboard keeps the latest issue snapshot pushed by the MCP server
// and fans updates out to connected WebSocket clients.
package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/models"
)

// Message types sent to WebSocket clients
const (
	MessageInitialData  = "initial_data"
	MessageIssuesUpdate = "issues_update"
)

const writeTimeout = 10 * time.Second

// Message is the envelope written to WebSocket clients
type Message struct {
	Type string                   `json:"type"`
	Data models.DashboardSnapshot `json:"data"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(msg)
}

// write expects c.mu to be held
func (c *client) write(msg Message) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// Hub owns the dashboard snapshot and the set of connected clients
type Hub struct {
	mu       sync.RWMutex
	snapshot models.DashboardSnapshot
	clients  map[*client]struct{}

	upgrader websocket.Upgrader
	clock    func() time.Time
	logger   logrus.FieldLogger
}

// HubOption customizes a Hub
type HubOption func(*Hub)

// WithClock overrides the time source for LastUpdated
func WithClock(clock func() time.Time) HubOption {
	return func(h *Hub) { h.clock = clock }
}

// WithAllowedOrigins restricts WebSocket upgrades to the given origins.
// "*" or an empty list accepts any origin.
func WithAllowedOrigins(origins []string) HubOption {
	return func(h *Hub) {
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			if o == "*" {
				return
			}
			allowed[o] = true
		}
		if len(allowed) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		}
	}
}

// NewHub creates an empty hub
func NewHub(logger logrus.FieldLogger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Hub{
		snapshot: models.DashboardSnapshot{Issues: []models.DashboardIssue{}},
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clock:  time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Snapshot returns a copy of the current snapshot
func (h *Hub) Snapshot() models.DashboardSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.copySnapshot()
}

// copySnapshot expects h.mu to be held
func (h *Hub) copySnapshot() models.DashboardSnapshot {
	out := h.snapshot
	out.Issues = append([]models.DashboardIssue{}, h.snapshot.Issues...)
	if h.snapshot.LastUpdated != nil {
		t := *h.snapshot.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

// Sync replaces the snapshot and broadcasts it. Clients that fail to
// receive the update are dropped; the sync itself always succeeds.
func (h *Hub) Sync(repository string, issues []models.DashboardIssue) models.DashboardSnapshot {
	now := h.clock().UTC()

	h.mu.Lock()
	h.snapshot = models.DashboardSnapshot{
		Issues:      append([]models.DashboardIssue{}, issues...),
		Repository:  repository,
		LastUpdated: &now,
	}
	snap := h.copySnapshot()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{
		"repository": repository,
		"issues":     len(issues),
		"clients":    len(targets),
	}).Info("dashboard synced")

	msg := Message{Type: MessageIssuesUpdate, Data: snap}
	for _, c := range targets {
		if err := c.send(msg); err != nil {
			h.logger.WithError(err).Debug("dropping dashboard client")
			h.remove(c)
		}
	}
	return snap
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

// ServeWS upgrades the request, sends the current snapshot and then keeps
// reading until the client goes away
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}

	// Hold the client's write lock across registration so a concurrent Sync
	// cannot overtake the initial snapshot.
	c.mu.Lock()
	h.mu.Lock()
	h.clients[c] = struct{}{}
	snap := h.copySnapshot()
	h.mu.Unlock()
	err = c.write(Message{Type: MessageInitialData, Data: snap})
	c.mu.Unlock()
	if err != nil {
		h.remove(c)
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}
