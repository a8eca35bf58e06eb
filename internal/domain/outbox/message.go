package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Message stores one committed ledger event for reliable publishing. Rows are
// written in the same database transaction as the movement they describe.
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	UserID        uuid.UUID           `json:"user_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a ledger event into a pending outbox row
func NewMessage(event *shared.LedgerEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:   event.EventID,
		UserID:    event.UserID,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

// Event extracts the ledger event from the payload
func (m *Message) Event() (*shared.LedgerEvent, error) {
	var event shared.LedgerEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
