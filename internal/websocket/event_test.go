package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":       1,
		"category": "Comida",
		"amount":   "10.00",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeExpense, payload)
	after := time.Now()

	assert.Equal(t, "expense.created", evt.Type)
	assert.Equal(t, EntityTypeExpense, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	evt := Event{
		Type:      "income.deleted",
		Entity:    EntityTypeIncome,
		Payload:   map[string]interface{}{"id": float64(3)},
		Timestamp: fixedTime,
	}

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "income.deleted", decoded["type"])
	assert.Equal(t, "income", decoded["entity"])
	assert.Equal(t, "2025-01-15T10:30:00Z", decoded["timestamp"])
	assert.Equal(t, map[string]interface{}{"id": float64(3)}, decoded["payload"])
}

func TestEventHelpers(t *testing.T) {
	payload := map[string]interface{}{"id": float64(1)}

	tests := []struct {
		name   string
		evt    Event
		want   string
		entity EntityType
	}{
		{"ExpenseCreated", ExpenseCreated(payload), "expense.created", EntityTypeExpense},
		{"ExpenseUpdated", ExpenseUpdated(payload), "expense.updated", EntityTypeExpense},
		{"ExpenseDeleted", ExpenseDeleted(payload), "expense.deleted", EntityTypeExpense},
		{"IncomeCreated", IncomeCreated(payload), "income.created", EntityTypeIncome},
		{"IncomeUpdated", IncomeUpdated(payload), "income.updated", EntityTypeIncome},
		{"IncomeDeleted", IncomeDeleted(payload), "income.deleted", EntityTypeIncome},
		{"BudgetUpdated", BudgetUpdated(payload), "budget.updated", EntityTypeBudget},
		{"BudgetDeleted", BudgetDeleted(payload), "budget.deleted", EntityTypeBudget},
		{"CategoryCreated", CategoryCreated(payload), "category.created", EntityTypeCategory},
		{"CategoryUpdated", CategoryUpdated(payload), "category.updated", EntityTypeCategory},
		{"CategoryDeleted", CategoryDeleted(payload), "category.deleted", EntityTypeCategory},
		{"SessionSignedIn", SessionSignedIn(payload), "session.signed_in", EntityTypeSession},
		{"SessionSignedOut", SessionSignedOut(payload), "session.signed_out", EntityTypeSession},
		{"SessionPasswordUpdated", SessionPasswordUpdated(payload), "session.password_updated", EntityTypeSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.evt.Type)
			assert.Equal(t, tt.entity, tt.evt.Entity)
			assert.Equal(t, payload, tt.evt.Payload)
		})
	}
}
