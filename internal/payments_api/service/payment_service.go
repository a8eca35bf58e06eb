package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/booking"
	"github.com/tidyhome-payments-ledger/internal/domain/outbox"
	"github.com/tidyhome-payments-ledger/internal/domain/payment"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/domain/wallet"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

// invoiceRetryAttempts bounds whole-transaction retries on invoice collisions.
// With a 36^10 keyspace a second collision in a row is effectively impossible.
const invoiceRetryAttempts = 3

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	logger      *slog.Logger
	txManager   persistence.TxManager
	paymentRepo payment.Repository
	refundRepo  payment.RefundRepository
	bookings    booking.Gateway
	wallets     WalletService
	outboxRepo  outbox.Repository
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	logger *slog.Logger,
	txManager persistence.TxManager,
	paymentRepo payment.Repository,
	refundRepo payment.RefundRepository,
	bookings booking.Gateway,
	wallets WalletService,
	outboxRepo outbox.Repository,
) PaymentService {
	return &PaymentServiceImpl{
		logger:      logger,
		txManager:   txManager,
		paymentRepo: paymentRepo,
		refundRepo:  refundRepo,
		bookings:    bookings,
		wallets:     wallets,
		outboxRepo:  outboxRepo,
	}
}

// Pay settles a pending booking owned by the principal. The full flow runs in
// one database transaction: booking lock and status check, wallet debit when
// paying from the wallet, payment insert, booking transition and outbox event.
// Replaying an idempotency key returns the original payment untouched.
func (s *PaymentServiceImpl) Pay(ctx context.Context, principal, bookingID uuid.UUID, method shared.PaymentMethod, idempotencyKey string) (*PaymentResult, error) {
	if idempotencyKey == "" {
		return nil, shared.ErrMissingIdempotencyKey
	}
	if !method.Valid() {
		return nil, shared.ErrInvalidState{Entity: "payment method", Status: string(method)}
	}

	// Fast replay path before opening a transaction
	if existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey); err == nil {
		return s.replayPayment(ctx, principal, existing)
	} else if !errors.Is(err, payment.ErrPaymentNotFound{}) {
		return nil, err
	}

	var result *PaymentResult
	for attempt := 0; attempt < invoiceRetryAttempts; attempt++ {
		err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
			var txErr error
			result, txErr = s.payTx(ctx, tx, principal, bookingID, method, idempotencyKey)
			return txErr
		})
		if err == nil {
			return result, nil
		}

		// A concurrent request with the same key won the race; return its payment
		var dupKey payment.ErrDuplicateIdempotencyKey
		if errors.As(err, &dupKey) {
			winner, getErr := s.paymentRepo.GetByIdempotencyKey(ctx, idempotencyKey)
			if getErr != nil {
				return nil, getErr
			}
			return s.replayPayment(ctx, principal, winner)
		}

		var dupInvoice payment.ErrDuplicateInvoiceNumber
		if errors.As(err, &dupInvoice) {
			s.logger.Warn("Invoice number collision, retrying payment transaction",
				"booking_id", bookingID.String(),
				"invoice_number", dupInvoice.InvoiceNumber,
				"attempt", attempt+1,
			)
			continue
		}

		return nil, persistence.MapRetryable(err)
	}

	return nil, errors.New("payment failed: exhausted invoice number retries")
}

func (s *PaymentServiceImpl) payTx(ctx context.Context, tx pgx.Tx, principal, bookingID uuid.UUID, method shared.PaymentMethod, idempotencyKey string) (*PaymentResult, error) {
	b, err := s.bookings.WithTx(tx).LockForUpdate(ctx, bookingID, principal)
	if err != nil {
		return nil, err
	}
	if b.Status != shared.BookingStatusPending {
		return nil, shared.ErrInvalidState{Entity: "booking", Status: string(b.Status)}
	}

	invoiceNumber, err := generateInvoiceNumber()
	if err != nil {
		return nil, err
	}

	result := &PaymentResult{}
	if method == shared.PaymentMethodWallet {
		entry, debitErr := s.wallets.DebitTx(ctx, tx, principal, wallet.Mutation{
			Kind:        shared.EntryKindPayment,
			Amount:      b.TotalPrice,
			Reference:   invoiceNumber,
			Description: "Payment for " + b.ServiceName,
			Metadata: map[string]string{
				"booking_id":      b.ID.String(),
				"idempotency_key": idempotencyKey,
			},
		})
		if debitErr != nil {
			return nil, debitErr
		}
		balance := entry.BalanceAfter
		result.WalletBalance = &balance
	}

	p, err := payment.NewPayment(bookingID, method, b.TotalPrice, invoiceNumber, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if err := s.paymentRepo.WithTx(tx).Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.bookings.WithTx(tx).SetStatus(ctx, bookingID, shared.BookingStatusInProgress); err != nil {
		return nil, err
	}

	event := shared.NewLedgerEvent(shared.EventPaymentCreated, principal)
	event.Amount = p.Amount
	event.BalanceAfter = result.WalletBalance
	event.Reference = p.InvoiceNumber
	event.Description = "Payment for " + b.ServiceName
	event.Metadata = map[string]string{
		"booking_id": b.ID.String(),
		"payment_id": p.ID.String(),
		"method":     string(p.Method),
	}
	event.CorrelationID = shared.CorrelationIDFromContext(ctx)

	message, err := outbox.NewMessage(event)
	if err != nil {
		return nil, err
	}
	if err := s.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		"payment_id", p.ID.String(),
		"booking_id", bookingID.String(),
		"method", string(p.Method),
		"amount", p.Amount.String(),
		"invoice_number", p.InvoiceNumber,
	)

	result.Payment = p
	return result, nil
}

// replayPayment rebuilds the original Pay response for a replayed key
func (s *PaymentServiceImpl) replayPayment(ctx context.Context, principal uuid.UUID, p *payment.Payment) (*PaymentResult, error) {
	// Scope the replay to the principal; a foreign key replays as not found
	owned, err := s.paymentRepo.GetByIDForPrincipal(ctx, p.ID, principal)
	if err != nil {
		return nil, err
	}

	result := &PaymentResult{Payment: owned, Replayed: true}
	if owned.Method == shared.PaymentMethodWallet {
		if acc, accErr := s.walletBalance(ctx, principal); accErr == nil {
			result.WalletBalance = acc
		}
	}

	s.logger.Info("Replayed payment for idempotency key",
		"payment_id", owned.ID.String(),
		"invoice_number", owned.InvoiceNumber,
	)
	return result, nil
}

func (s *PaymentServiceImpl) walletBalance(ctx context.Context, userID uuid.UUID) (*decimal.Decimal, error) {
	acc, err := s.wallets.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance := acc.Balance
	return &balance, nil
}

// Refund reverses a paid payment. The payment row is locked for the status
// transition; wallet payments are credited back in the same transaction.
func (s *PaymentServiceImpl) Refund(ctx context.Context, principal, paymentID uuid.UUID, amount *decimal.Decimal, reason, idempotencyKey string) (*RefundResult, error) {
	if idempotencyKey == "" {
		return nil, shared.ErrMissingIdempotencyKey
	}

	// Fast replay path before opening a transaction
	if existing, err := s.refundRepo.GetByIdempotencyKey(ctx, idempotencyKey); err == nil {
		return s.replayRefund(ctx, principal, existing)
	} else if !errors.Is(err, payment.ErrRefundNotFound{}) {
		return nil, err
	}

	var result *RefundResult
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		result, txErr = s.refundTx(ctx, tx, principal, paymentID, amount, reason, idempotencyKey)
		return txErr
	})
	if err != nil {
		// A concurrent request with the same key won the race
		var dupKey payment.ErrDuplicateIdempotencyKey
		if errors.As(err, &dupKey) {
			winner, getErr := s.refundRepo.GetByIdempotencyKey(ctx, idempotencyKey)
			if getErr != nil {
				return nil, getErr
			}
			return s.replayRefund(ctx, principal, winner)
		}
		return nil, persistence.MapRetryable(err)
	}

	return result, nil
}

func (s *PaymentServiceImpl) refundTx(ctx context.Context, tx pgx.Tx, principal, paymentID uuid.UUID, amount *decimal.Decimal, reason, idempotencyKey string) (*RefundResult, error) {
	p, err := s.paymentRepo.WithTx(tx).LockForUpdate(ctx, paymentID, principal)
	if err != nil {
		return nil, err
	}
	if !p.Refundable() {
		return nil, shared.ErrInvalidState{Entity: "payment", Status: string(p.Status)}
	}

	refundAmount := p.Amount
	if amount != nil {
		refundAmount = *amount
	}

	ref, err := payment.NewRefund(p, refundAmount, reason, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if err := s.refundRepo.WithTx(tx).Create(ctx, ref); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.WithTx(tx).UpdateStatus(ctx, p.ID, shared.PaymentStatusRefunded); err != nil {
		return nil, err
	}
	p.Status = shared.PaymentStatusRefunded

	result := &RefundResult{Payment: p, Refund: ref}
	if p.Method == shared.PaymentMethodWallet {
		entry, creditErr := s.wallets.CreditTx(ctx, tx, principal, wallet.Mutation{
			Kind:        shared.EntryKindRefund,
			Amount:      refundAmount,
			Reference:   p.InvoiceNumber,
			Description: "Refund for invoice " + p.InvoiceNumber,
			Metadata: map[string]string{
				"payment_id":      p.ID.String(),
				"idempotency_key": idempotencyKey,
				"reason":          reason,
				"original_amount": p.Amount.String(),
			},
		})
		if creditErr != nil {
			return nil, creditErr
		}
		balance := entry.BalanceAfter
		result.WalletBalance = &balance
	}

	event := shared.NewLedgerEvent(shared.EventPaymentRefunded, principal)
	event.Amount = refundAmount
	event.BalanceAfter = result.WalletBalance
	event.Reference = p.InvoiceNumber
	event.Description = reason
	event.Metadata = map[string]string{
		"payment_id": p.ID.String(),
		"refund_id":  ref.ID.String(),
		"method":     string(p.Method),
	}
	event.CorrelationID = shared.CorrelationIDFromContext(ctx)

	message, err := outbox.NewMessage(event)
	if err != nil {
		return nil, err
	}
	if err := s.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return nil, err
	}

	s.logger.Info("Refund recorded",
		"payment_id", p.ID.String(),
		"refund_id", ref.ID.String(),
		"amount", refundAmount.String(),
	)

	return result, nil
}

// replayRefund rebuilds the original Refund response for a replayed key
func (s *PaymentServiceImpl) replayRefund(ctx context.Context, principal uuid.UUID, ref *payment.Refund) (*RefundResult, error) {
	p, err := s.paymentRepo.GetByIDForPrincipal(ctx, ref.PaymentID, principal)
	if err != nil {
		return nil, err
	}

	result := &RefundResult{Payment: p, Refund: ref, Replayed: true}
	if p.Method == shared.PaymentMethodWallet {
		if balance, accErr := s.walletBalance(ctx, principal); accErr == nil {
			result.WalletBalance = balance
		}
	}

	s.logger.Info("Replayed refund for idempotency key",
		"payment_id", p.ID.String(),
		"refund_id", ref.ID.String(),
	)
	return result, nil
}

// List returns a page of the principal's payments plus the total count
func (s *PaymentServiceImpl) List(ctx context.Context, principal uuid.UUID, filter payment.Filter, page, perPage int) ([]*payment.Payment, int64, error) {
	offset := (page - 1) * perPage

	payments, err := s.paymentRepo.ListByPrincipal(ctx, principal, filter, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.paymentRepo.CountByPrincipal(ctx, principal, filter)
	if err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

// Get returns one of the principal's payments
func (s *PaymentServiceImpl) Get(ctx context.Context, principal, id uuid.UUID) (*payment.Payment, error) {
	return s.paymentRepo.GetByIDForPrincipal(ctx, id, principal)
}
