package websocket

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrClientClosed is returned when sending to a closed client
	ErrClientClosed = errors.New("client is closed")
	// ErrClientTooSlow is returned when a client's send buffer is full
	ErrClientTooSlow = errors.New("client send buffer full")
)

// ClientInterface is what the hub needs from a connection
type ClientInterface interface {
	ID() string
	UserID() uuid.UUID
	// Send queues data without blocking
	Send(data []byte) error
	Close() error
}

// Hub tracks the open connections of each user. Delivery never blocks: a
// connection that cannot take an event is closed and forgotten, and the
// browser reconnects and refetches.
type Hub struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[string]ClientInterface
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{users: make(map[uuid.UUID]map[string]ClientInterface)}
}

// Register adds a connection under its user
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	clients := h.users[client.UserID()]
	if clients == nil {
		clients = make(map[string]ClientInterface)
		h.users[client.UserID()] = clients
	}
	clients[client.ID()] = client
	n := len(clients)
	h.mu.Unlock()

	log.Debug().
		Str("user_id", client.UserID().String()).
		Str("client_id", client.ID()).
		Int("user_connections", n).
		Msg("WebSocket client registered")
}

// Unregister forgets a connection. Unknown connections are ignored.
func (h *Hub) Unregister(client ClientInterface) {
	if h.remove(client) {
		log.Debug().
			Str("user_id", client.UserID().String()).
			Str("client_id", client.ID()).
			Msg("WebSocket client unregistered")
	}
}

func (h *Hub) remove(client ClientInterface) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.users[client.UserID()]
	if !ok {
		return false
	}
	if _, ok := clients[client.ID()]; !ok {
		return false
	}
	delete(clients, client.ID())
	if len(clients) == 0 {
		delete(h.users, client.UserID())
	}
	return true
}

// Broadcast delivers an event to every connection of one user and returns
// how many accepted it
func (h *Hub) Broadcast(userID uuid.UUID, event Event) int {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID.String()).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return 0
	}

	h.mu.RLock()
	targets := make([]ClientInterface, 0, len(h.users[userID]))
	for _, c := range h.users[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.Send(data); err != nil {
			h.drop(c, err)
			continue
		}
		delivered++
	}

	if len(targets) > 0 {
		log.Debug().
			Str("user_id", userID.String()).
			Str("event_type", event.Type).
			Int("delivered", delivered).
			Int("dropped", len(targets)-delivered).
			Msg("Broadcast event")
	}
	return delivered
}

// drop removes a connection that failed a send and closes it
func (h *Hub) drop(c ClientInterface, cause error) {
	if !h.remove(c) {
		return
	}
	log.Warn().
		Err(cause).
		Str("user_id", c.UserID().String()).
		Str("client_id", c.ID()).
		Msg("Dropping WebSocket client")
	_ = c.Close()
}

// Shutdown closes every connection
func (h *Hub) Shutdown() {
	h.mu.Lock()
	users := h.users
	h.users = make(map[uuid.UUID]map[string]ClientInterface)
	h.mu.Unlock()

	for _, clients := range users {
		for _, c := range clients {
			_ = c.Close()
		}
	}
}

// ClientCount returns the number of connections of a user
func (h *Hub) ClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// TotalClientCount returns the number of connections across all users
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.users {
		total += len(clients)
	}
	return total
}
