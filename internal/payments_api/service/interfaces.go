package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/loyalty"
	"github.com/tidyhome-payments-ledger/internal/domain/payment"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/domain/wallet"
)

// WalletService owns every wallet balance change. Each mutation locks the
// account row, writes exactly one ledger entry and updates the balance in the
// same database transaction.
type WalletService interface {
	// Credit adds funds to the user's wallet
	// Returns ErrInvalidAmount for non-positive amounts
	Credit(ctx context.Context, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error)

	// Debit removes funds from the user's wallet
	// Returns ErrInsufficientFunds when the balance does not cover the amount
	Debit(ctx context.Context, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error)

	// CreditTx and DebitTx run inside a caller-owned transaction so payment
	// and refund flows stay atomic with their own writes
	CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error)
	DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error)

	// Balance returns the user's wallet, creating an empty one on first use
	Balance(ctx context.Context, userID uuid.UUID) (*wallet.Account, error)

	// TopUp credits the wallet with kind=topup and returns the new entry
	TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*wallet.Entry, error)

	// Transactions returns a page of the user's ledger history plus the total count
	Transactions(ctx context.Context, userID uuid.UUID, filter wallet.EntryFilter, page, perPage int) ([]*wallet.Entry, int64, error)

	// Stats aggregates the user's completed ledger history per kind
	Stats(ctx context.Context, userID uuid.UUID) (*wallet.Stats, error)
}

// PaymentResult is the outcome of a Pay call. Replayed is true when the
// idempotency key matched an earlier payment and no new work was done.
type PaymentResult struct {
	Payment       *payment.Payment
	WalletBalance *decimal.Decimal // set for wallet payments
	Replayed      bool
}

// RefundResult is the outcome of a Refund call
type RefundResult struct {
	Payment       *payment.Payment
	Refund        *payment.Refund
	WalletBalance *decimal.Decimal // set for wallet payments
	Replayed      bool
}

// PaymentService settles bookings and records refunds
type PaymentService interface {
	// Pay settles a pending booking owned by the principal. The idempotency
	// key is mandatory; replaying a key returns the original payment.
	Pay(ctx context.Context, principal, bookingID uuid.UUID, method shared.PaymentMethod, idempotencyKey string) (*PaymentResult, error)

	// Refund reverses a paid payment. A nil amount refunds the full payment
	Refund(ctx context.Context, principal, paymentID uuid.UUID, amount *decimal.Decimal, reason, idempotencyKey string) (*RefundResult, error)

	// List returns a page of the principal's payments plus the total count
	List(ctx context.Context, principal uuid.UUID, filter payment.Filter, page, perPage int) ([]*payment.Payment, int64, error)

	// Get returns one of the principal's payments
	// Returns ErrPaymentNotFound for missing or foreign payments
	Get(ctx context.Context, principal, id uuid.UUID) (*payment.Payment, error)
}

// LoyaltyService manages the append-only loyalty points log
type LoyaltyService interface {
	// Points returns the computed balance and recent activity
	Points(ctx context.Context, userID uuid.UUID) (int, []*loyalty.Entry, error)

	// Add records earned points
	Add(ctx context.Context, userID uuid.UUID, points int, sourceRequestID *uuid.UUID) (*loyalty.Entry, error)

	// Deduct redeems points, failing with ErrInsufficientPoints when the
	// balance does not cover the redemption
	Deduct(ctx context.Context, userID uuid.UUID, points int, sourceRequestID *uuid.UUID) (*loyalty.Entry, error)
}
