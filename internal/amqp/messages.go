package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

// EventType identifies what happened to an expense.
type EventType string

const (
	EventAdded   EventType = "added"
	EventDeleted EventType = "deleted"
)

// ExpenseEventMessage is published after every successful store mutation.
// It carries the full record so consumers never need to read the store.
type ExpenseEventMessage struct {
	Type        EventType `json:"type"`
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseEventMessage builds a message for e stamped with the current time
func NewExpenseEventMessage(t EventType, e core.Expense) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		Type:        t,
		ID:          e.ID,
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Date:        e.Date,
		Timestamp:   time.Now(),
	}
}

// Expense rebuilds the record carried by the message.
func (m *ExpenseEventMessage) Expense() core.Expense {
	return core.Expense{
		ID:          m.ID,
		Description: m.Description,
		Amount:      core.Money{Cents: m.AmountCents},
		Category:    core.Category(m.Category),
		Date:        m.Date,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventMessageFromJSON decodes a message and rejects unknown event types.
func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventAdded, EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
