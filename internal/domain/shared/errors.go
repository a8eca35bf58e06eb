package shared

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the payment core. Business-rule failures abort
// the enclosing transaction; none of them leaves a partial ledger entry behind.
var (
	ErrInsufficientFunds     = errors.New("insufficient wallet balance")
	ErrInsufficientPoints    = errors.New("insufficient loyalty points")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrRetryable             = errors.New("transient storage conflict, retry with the same idempotency key")
)

// ErrInvalidState indicates a state-machine violation, e.g. paying a booking
// that is no longer pending or refunding a payment that was never paid.
type ErrInvalidState struct {
	Entity string
	Status string
}

func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("%s is in state %q, operation not allowed", e.Entity, e.Status)
}

// Is matches any ErrInvalidState when the target carries no entity/status.
func (e ErrInvalidState) Is(target error) bool {
	t, ok := target.(ErrInvalidState)
	if !ok {
		return false
	}
	if t.Entity == "" && t.Status == "" {
		return true
	}
	return e == t
}
