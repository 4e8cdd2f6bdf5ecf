package websocket

import "github.com/google/uuid"

// EventPublisher delivers domain events for one user
type EventPublisher interface {
	// Publish sends an event to everything subscribed to the user's events
	Publish(userID uuid.UUID, event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the user's connections
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	h.Broadcast(userID, event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(userID uuid.UUID, event Event) {}

// MultiPublisher fans an event out to several publishers in order
type MultiPublisher []EventPublisher

// Publish forwards the event to every wrapped publisher
func (m MultiPublisher) Publish(userID uuid.UUID, event Event) {
	for _, p := range m {
		p.Publish(userID, event)
	}
}
