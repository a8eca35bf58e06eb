package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Payment is one booking-payment attempt. Rows are never deleted; a refund is
// recorded as a status transition plus a dedicated refund row, preserving the
// full audit history.
type Payment struct {
	ID             uuid.UUID            `json:"id"`
	BookingID      uuid.UUID            `json:"booking_id"`
	Method         shared.PaymentMethod `json:"method"`
	Amount         decimal.Decimal      `json:"amount"`
	Status         shared.PaymentStatus `json:"status"`
	InvoiceNumber  string               `json:"invoice_number"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// NewPayment builds a paid payment row. Cash and wallet payments settle
// synchronously, so there is no pending window.
func NewPayment(bookingID uuid.UUID, method shared.PaymentMethod, amount decimal.Decimal, invoiceNumber, idempotencyKey string) (*Payment, error) {
	if !method.Valid() {
		return nil, shared.ErrInvalidState{Entity: "payment method", Status: string(method)}
	}
	if amount.Sign() <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	now := time.Now()
	return &Payment{
		ID:             uuid.New(),
		BookingID:      bookingID,
		Method:         method,
		Amount:         amount,
		Status:         shared.PaymentStatusPaid,
		InvoiceNumber:  invoiceNumber,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Refundable reports whether the payment can transition to refunded
func (p *Payment) Refundable() bool {
	return p.Status == shared.PaymentStatusPaid
}

// Refund records one refund against a paid payment. The idempotency key is a
// dedicated column so replayed refund requests can be looked up directly.
type Refund struct {
	ID             uuid.UUID       `json:"id"`
	PaymentID      uuid.UUID       `json:"payment_id"`
	Amount         decimal.Decimal `json:"amount"`
	Reason         string          `json:"reason"`
	IdempotencyKey string          `json:"idempotency_key"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NewRefund validates the refund amount against the original payment
func NewRefund(p *Payment, amount decimal.Decimal, reason, idempotencyKey string) (*Refund, error) {
	if amount.Sign() <= 0 || amount.GreaterThan(p.Amount) {
		return nil, shared.ErrInvalidAmount
	}
	return &Refund{
		ID:             uuid.New(),
		PaymentID:      p.ID,
		Amount:         amount,
		Reason:         reason,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now(),
	}, nil
}

// Filter narrows payment history queries
type Filter struct {
	Status shared.PaymentStatus
	Method shared.PaymentMethod
}
