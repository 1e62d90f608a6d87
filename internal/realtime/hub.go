package realtime

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Conn is the minimal surface the hub needs from a websocket connection.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// connection is one socket of one user, with its chat subscriptions
// (joinChat/leaveChat frames) tracked for typing fan-out.
type connection struct {
	id     uuid.UUID
	userID string
	conn   Conn

	mu         sync.RWMutex
	subscribed map[string]struct{}
	writeMu    sync.Mutex
}

func (c *connection) write(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *connection) isSubscribed(chatID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribed[chatID]
	return ok
}

// Hub is the per-instance registry of live connections, keyed by user id.
// A user may hold several connections (multiple tabs/devices).
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[uuid.UUID]*connection
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]map[uuid.UUID]*connection),
		logger: logger,
	}
}

// Register adds a connection for the user and returns its id.
func (h *Hub) Register(userID string, conn Conn) uuid.UUID {
	c := &connection{
		id:         uuid.New(),
		userID:     userID,
		conn:       conn,
		subscribed: make(map[string]struct{}),
	}

	h.mu.Lock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[uuid.UUID]*connection)
	}
	h.conns[userID][c.id] = c
	h.mu.Unlock()

	h.logger.Info("websocket connected", "userID", userID, "connID", c.id)
	return c.id
}

// Unregister drops the connection.
func (h *Hub) Unregister(userID string, connID uuid.UUID) {
	h.mu.Lock()
	if set, ok := h.conns[userID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
	h.mu.Unlock()

	h.logger.Info("websocket disconnected", "userID", userID, "connID", connID)
}

// Subscribe tracks a chat subscription for typing fan-out.
func (h *Hub) Subscribe(userID string, connID uuid.UUID, chatID string) {
	if c := h.lookup(userID, connID); c != nil {
		c.mu.Lock()
		c.subscribed[chatID] = struct{}{}
		c.mu.Unlock()
	}
}

// Unsubscribe drops a chat subscription.
func (h *Hub) Unsubscribe(userID string, connID uuid.UUID, chatID string) {
	if c := h.lookup(userID, connID); c != nil {
		c.mu.Lock()
		delete(c.subscribed, chatID)
		c.mu.Unlock()
	}
}

func (h *Hub) lookup(userID string, connID uuid.UUID) *connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[userID][connID]
}

// DeliverToUsers writes the event to every local connection of the given
// users. Best-effort: write errors are logged, never returned.
func (h *Hub) DeliverToUsers(event Event, userIDs []string) {
	h.mu.RLock()
	var targets []*connection
	for _, id := range userIDs {
		for _, c := range h.conns[id] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		go func(c *connection) {
			if err := c.write(event); err != nil {
				h.logger.Warn("failed to write event", "userID", c.userID, "type", event.Type, "error", err)
			}
		}(c)
	}
}

// DeliverToChat writes the event to every local connection subscribed to
// the chat, excluding the originating connection.
func (h *Hub) DeliverToChat(event Event, chatID string, exclude uuid.UUID) {
	h.mu.RLock()
	var targets []*connection
	for _, set := range h.conns {
		for _, c := range set {
			if c.id != exclude && c.isSubscribed(chatID) {
				targets = append(targets, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		go func(c *connection) {
			if err := c.write(event); err != nil {
				h.logger.Warn("failed to write chat event", "chatID", chatID, "error", err)
			}
		}(c)
	}
}
