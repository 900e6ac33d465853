package amqp

import (
	"encoding/json"
	"math"
	"time"

	"expenses/internal/core"
)

// EventType names a ledger mutation.
type EventType string

const (
	EventExpenseAdded   EventType = "expense.added"
	EventExpenseDeleted EventType = "expense.deleted"
)

// LedgerEvent is published after every successful add or delete.
// Amount is nil when the entry's amount is not a finite number.
type LedgerEvent struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	Amount    *float64  `json:"amount"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAddedEvent describes a freshly added expense.
func NewAddedEvent(e core.Expense) *LedgerEvent {
	return &LedgerEvent{
		Type:      EventExpenseAdded,
		ID:        e.ID,
		Name:      e.Name,
		Amount:    finite(e.Amount),
		Category:  e.Category.String(),
		Timestamp: time.Now(),
	}
}

// NewDeletedEvent describes a removed expense.
func NewDeletedEvent(e core.Expense) *LedgerEvent {
	ev := NewAddedEvent(e)
	ev.Type = EventExpenseDeleted
	return ev
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ToJSON converts the event to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Expense rebuilds the entry carried by the event. A null amount comes back
// as NaN.
func (m *LedgerEvent) Expense() core.Expense {
	amount := math.NaN()
	if m.Amount != nil {
		amount = *m.Amount
	}
	return core.Expense{
		ID:       m.ID,
		Name:     m.Name,
		Amount:   amount,
		Category: core.Category(m.Category),
	}
}
