package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Entry is one signed points movement. The ledger has no materialized balance
// column; a user's balance is the sum over their entries, computed on read.
// Point volumes are low enough that no cached counter is needed.
type Entry struct {
	ID              int64      `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Points          int        `json:"points"`
	SourceRequestID *uuid.UUID `json:"source_request_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewEntry builds a points movement; points carries the sign of the movement
func NewEntry(userID uuid.UUID, points int, sourceRequestID *uuid.UUID) (*Entry, error) {
	if points == 0 {
		return nil, shared.ErrInvalidAmount
	}
	return &Entry{
		UserID:          userID,
		Points:          points,
		SourceRequestID: sourceRequestID,
		CreatedAt:       time.Now(),
	}, nil
}

// IsEarned reports whether the entry added points
func (e *Entry) IsEarned() bool {
	return e.Points > 0
}
