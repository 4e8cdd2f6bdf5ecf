package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to the entity
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// Session event types
const (
	EventTypeSignedIn        EventType = "signed_in"
	EventTypeSignedOut       EventType = "signed_out"
	EventTypePasswordUpdated EventType = "password_updated"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeExpense  EntityType = "expense"
	EntityTypeIncome   EntityType = "income"
	EntityTypeBudget   EntityType = "budget"
	EntityTypeCategory EntityType = "category"
	EntityTypeSession  EntityType = "session"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string     `json:"type"`      // Combined type e.g. "expense.created"
	Entity    EntityType `json:"entity"`    // Entity type e.g. "expense"
	Payload   any        `json:"payload"`   // Full entity data
	Timestamp time.Time  `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload any) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseCreated creates an expense.created event
func ExpenseCreated(payload any) Event {
	return NewEvent(EventTypeCreated, EntityTypeExpense, payload)
}

// ExpenseUpdated creates an expense.updated event
func ExpenseUpdated(payload any) Event {
	return NewEvent(EventTypeUpdated, EntityTypeExpense, payload)
}

// ExpenseDeleted creates an expense.deleted event
func ExpenseDeleted(payload any) Event {
	return NewEvent(EventTypeDeleted, EntityTypeExpense, payload)
}

// IncomeCreated creates an income.created event
func IncomeCreated(payload any) Event {
	return NewEvent(EventTypeCreated, EntityTypeIncome, payload)
}

// IncomeUpdated creates an income.updated event
func IncomeUpdated(payload any) Event {
	return NewEvent(EventTypeUpdated, EntityTypeIncome, payload)
}

// IncomeDeleted creates an income.deleted event
func IncomeDeleted(payload any) Event {
	return NewEvent(EventTypeDeleted, EntityTypeIncome, payload)
}

// BudgetUpdated creates a budget.updated event. Upserts and income adjustments both use it.
func BudgetUpdated(payload any) Event {
	return NewEvent(EventTypeUpdated, EntityTypeBudget, payload)
}

// BudgetDeleted creates a budget.deleted event
func BudgetDeleted(payload any) Event {
	return NewEvent(EventTypeDeleted, EntityTypeBudget, payload)
}

// CategoryCreated creates a category.created event
func CategoryCreated(payload any) Event {
	return NewEvent(EventTypeCreated, EntityTypeCategory, payload)
}

// CategoryUpdated creates a category.updated event
func CategoryUpdated(payload any) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCategory, payload)
}

// CategoryDeleted creates a category.deleted event
func CategoryDeleted(payload any) Event {
	return NewEvent(EventTypeDeleted, EntityTypeCategory, payload)
}

// SessionSignedIn creates a session.signed_in event
func SessionSignedIn(payload any) Event {
	return NewEvent(EventTypeSignedIn, EntityTypeSession, payload)
}

// SessionSignedOut creates a session.signed_out event
func SessionSignedOut(payload any) Event {
	return NewEvent(EventTypeSignedOut, EntityTypeSession, payload)
}

// SessionPasswordUpdated creates a session.password_updated event
func SessionPasswordUpdated(payload any) Event {
	return NewEvent(EventTypePasswordUpdated, EntityTypeSession, payload)
}
