package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Repository defines payment persistence operations
type Repository interface {
	// Create inserts a payment row. Returns ErrDuplicateIdempotencyKey when
	// the key is already taken and ErrDuplicateInvoiceNumber on an invoice
	// collision, so callers can distinguish replay from bad luck.
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)

	// LockForUpdate acquires a row lock on the payment for the refund
	// transition. Must run inside a transaction. The principal scope restricts
	// the lookup to payments whose booking belongs to that user.
	LockForUpdate(ctx context.Context, id, principal uuid.UUID) (*Payment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status shared.PaymentStatus) error

	ListByPrincipal(ctx context.Context, principal uuid.UUID, filter Filter, limit, offset int) ([]*Payment, error)
	CountByPrincipal(ctx context.Context, principal uuid.UUID, filter Filter) (int64, error)
	GetByIDForPrincipal(ctx context.Context, id, principal uuid.UUID) (*Payment, error)

	WithTx(tx pgx.Tx) Repository
}

// RefundRepository persists refund rows keyed by idempotency key
type RefundRepository interface {
	Create(ctx context.Context, r *Refund) error
	GetByIdempotencyKey(ctx context.Context, key string) (*Refund, error)
	WithTx(tx pgx.Tx) RefundRepository
}

// ErrPaymentNotFound indicates a missing payment
type ErrPaymentNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.PaymentID.String()
}

// Is matches any ErrPaymentNotFound when the target carries the nil UUID
func (e ErrPaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	return t.PaymentID == uuid.Nil || e.PaymentID == t.PaymentID
}

// ErrRefundNotFound indicates no refund exists for the given idempotency key
type ErrRefundNotFound struct {
	Key string
}

func (e ErrRefundNotFound) Error() string {
	return "refund not found"
}

// Is matches any ErrRefundNotFound when the target carries no key
func (e ErrRefundNotFound) Is(target error) bool {
	t, ok := target.(ErrRefundNotFound)
	if !ok {
		return false
	}
	return t.Key == "" || e.Key == t.Key
}

// ErrDuplicateIdempotencyKey signals that a payment or refund already exists
// for the client-supplied key; callers fetch and return the prior result.
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "idempotency key already used: " + e.Key
}

// ErrDuplicateInvoiceNumber signals an invoice number collision; the whole
// transaction is retried with a freshly generated number.
type ErrDuplicateInvoiceNumber struct {
	InvoiceNumber string
}

func (e ErrDuplicateInvoiceNumber) Error() string {
	return "invoice number already used: " + e.InvoiceNumber
}

// ErrDuplicateActivePayment signals a concurrent payment attempt for the same
// booking hitting the partial unique index on non-terminal payments.
type ErrDuplicateActivePayment struct {
	BookingID uuid.UUID
}

func (e ErrDuplicateActivePayment) Error() string {
	return "booking already has an active payment: " + e.BookingID.String()
}
