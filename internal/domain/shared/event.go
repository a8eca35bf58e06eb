package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType labels committed ledger movements published to the archive stream
type EventType string

const (
	EventWalletCredited  EventType = "wallet.credited"
	EventWalletDebited   EventType = "wallet.debited"
	EventPaymentCreated  EventType = "payment.created"
	EventPaymentRefunded EventType = "payment.refunded"
	EventPointsAdjusted  EventType = "loyalty.points_adjusted"
)

// LedgerEvent is the payload written to the transactional outbox in the same
// database transaction as the movement it describes, later published to Kafka
// and archived in MongoDB. It is a snapshot: the archive never feeds back into
// the authoritative Postgres state.
type LedgerEvent struct {
	EventID       uuid.UUID         `json:"event_id"`
	Type          EventType         `json:"type"`
	UserID        uuid.UUID         `json:"user_id"`
	Amount        decimal.Decimal   `json:"amount"`
	BalanceAfter  *decimal.Decimal  `json:"balance_after,omitempty"`
	Points        int               `json:"points,omitempty"`
	Currency      string            `json:"currency,omitempty"`
	Reference     string            `json:"reference,omitempty"`
	Description   string            `json:"description,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// NewLedgerEvent builds an event with a fresh identity and timestamp
func NewLedgerEvent(eventType EventType, userID uuid.UUID) *LedgerEvent {
	return &LedgerEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}
