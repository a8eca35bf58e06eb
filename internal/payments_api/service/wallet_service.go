package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/outbox"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/domain/wallet"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

// WalletServiceImpl implements the WalletService interface
type WalletServiceImpl struct {
	logger      *slog.Logger
	txManager   persistence.TxManager
	accountRepo wallet.AccountRepository
	entryRepo   wallet.EntryRepository
	outboxRepo  outbox.Repository
}

// NewWalletService creates a new wallet service
func NewWalletService(
	logger *slog.Logger,
	txManager persistence.TxManager,
	accountRepo wallet.AccountRepository,
	entryRepo wallet.EntryRepository,
	outboxRepo outbox.Repository,
) WalletService {
	return &WalletServiceImpl{
		logger:      logger,
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
	}
}

// Credit adds funds to the user's wallet in its own transaction
func (s *WalletServiceImpl) Credit(ctx context.Context, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if !m.Kind.IsCredit() {
		return nil, shared.ErrInvalidState{Entity: "ledger entry kind", Status: string(m.Kind)}
	}
	return s.mutate(ctx, userID, m)
}

// Debit removes funds from the user's wallet in its own transaction
func (s *WalletServiceImpl) Debit(ctx context.Context, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if !m.Kind.IsDebit() {
		return nil, shared.ErrInvalidState{Entity: "ledger entry kind", Status: string(m.Kind)}
	}
	return s.mutate(ctx, userID, m)
}

// CreditTx adds funds inside a caller-owned transaction
func (s *WalletServiceImpl) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if !m.Kind.IsCredit() {
		return nil, shared.ErrInvalidState{Entity: "ledger entry kind", Status: string(m.Kind)}
	}
	return s.applyMutation(ctx, tx, userID, m)
}

// DebitTx removes funds inside a caller-owned transaction
func (s *WalletServiceImpl) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if !m.Kind.IsDebit() {
		return nil, shared.ErrInvalidState{Entity: "ledger entry kind", Status: string(m.Kind)}
	}
	return s.applyMutation(ctx, tx, userID, m)
}

// Balance returns the user's wallet, creating an empty one on first use
func (s *WalletServiceImpl) Balance(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	return s.accountRepo.GetOrCreate(ctx, userID)
}

// TopUp credits the wallet with kind=topup
func (s *WalletServiceImpl) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*wallet.Entry, error) {
	return s.Credit(ctx, userID, wallet.Mutation{
		Kind:        shared.EntryKindTopup,
		Amount:      amount,
		Description: description,
	})
}

// Transactions returns a page of the user's ledger history plus the total count
func (s *WalletServiceImpl) Transactions(ctx context.Context, userID uuid.UUID, filter wallet.EntryFilter, page, perPage int) ([]*wallet.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.entryRepo.ListByUserID(ctx, userID, filter, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.entryRepo.CountByUserID(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Stats aggregates the user's completed ledger history per kind
func (s *WalletServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (*wallet.Stats, error) {
	return s.entryRepo.StatsByUserID(ctx, userID)
}

// mutate runs one balance change in its own transaction
func (s *WalletServiceImpl) mutate(ctx context.Context, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error) {
	var entry *wallet.Entry
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		entry, txErr = s.applyMutation(ctx, tx, userID, m)
		return txErr
	})
	if err != nil {
		return nil, persistence.MapRetryable(err)
	}
	return entry, nil
}

// applyMutation performs the locked read-modify-write plus the paired ledger
// entry and outbox event. The account row lock is held until the enclosing
// transaction commits, so concurrent mutations of one wallet serialize here.
func (s *WalletServiceImpl) applyMutation(ctx context.Context, tx pgx.Tx, userID uuid.UUID, m wallet.Mutation) (*wallet.Entry, error) {
	accounts := s.accountRepo.WithTx(tx)

	acc, err := accounts.LockForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	balanceBefore := acc.Balance
	if m.Kind.IsCredit() {
		err = acc.Credit(m.Amount)
	} else {
		err = acc.Debit(m.Amount)
	}
	if err != nil {
		return nil, err
	}

	entry, err := wallet.NewEntry(userID, m.Kind, m.Amount, balanceBefore, acc.Balance)
	if err != nil {
		return nil, err
	}
	entry.Reference = m.Reference
	entry.Description = m.Description
	entry.Metadata = m.Metadata

	if err := accounts.UpdateBalance(ctx, acc); err != nil {
		return nil, err
	}
	if err := s.entryRepo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.recordEvent(ctx, tx, acc, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Wallet balance updated",
		"user_id", userID.String(),
		"kind", string(m.Kind),
		"amount", m.Amount.String(),
		"balance_after", acc.Balance.String(),
	)

	return entry, nil
}

// recordEvent writes the outbox row describing the committed mutation
func (s *WalletServiceImpl) recordEvent(ctx context.Context, tx pgx.Tx, acc *wallet.Account, entry *wallet.Entry) error {
	eventType := shared.EventWalletCredited
	if entry.Kind.IsDebit() {
		eventType = shared.EventWalletDebited
	}

	event := shared.NewLedgerEvent(eventType, entry.UserID)
	event.Amount = entry.Amount
	balanceAfter := entry.BalanceAfter
	event.BalanceAfter = &balanceAfter
	event.Currency = acc.Currency
	event.Reference = entry.Reference
	event.Description = entry.Description
	event.Metadata = entry.Metadata
	event.CorrelationID = shared.CorrelationIDFromContext(ctx)

	message, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, message)
}
