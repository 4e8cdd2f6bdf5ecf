package service

import (
	"github.com/google/uuid"

	"github.com/dafibh/gastify/gastify-backend/internal/websocket"
)

// eventSink is embedded by services that emit realtime events
type eventSink struct {
	eventPublisher websocket.EventPublisher
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *eventSink) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes an event if a publisher is configured
func (s *eventSink) publishEvent(userID uuid.UUID, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}
