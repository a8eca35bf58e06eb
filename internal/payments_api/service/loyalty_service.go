package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/loyalty"
	"github.com/tidyhome-payments-ledger/internal/domain/outbox"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

// recentActivityLimit caps the activity list returned with the points balance
const recentActivityLimit = 20

// LoyaltyServiceImpl implements the LoyaltyService interface
type LoyaltyServiceImpl struct {
	logger      *slog.Logger
	txManager   persistence.TxManager
	loyaltyRepo loyalty.Repository
	outboxRepo  outbox.Repository
}

// NewLoyaltyService creates a new loyalty points service
func NewLoyaltyService(
	logger *slog.Logger,
	txManager persistence.TxManager,
	loyaltyRepo loyalty.Repository,
	outboxRepo outbox.Repository,
) LoyaltyService {
	return &LoyaltyServiceImpl{
		logger:      logger,
		txManager:   txManager,
		loyaltyRepo: loyaltyRepo,
		outboxRepo:  outboxRepo,
	}
}

// Points returns the computed balance and recent activity
func (s *LoyaltyServiceImpl) Points(ctx context.Context, userID uuid.UUID) (int, []*loyalty.Entry, error) {
	balance, err := s.loyaltyRepo.SumByUserID(ctx, userID)
	if err != nil {
		return 0, nil, err
	}

	entries, err := s.loyaltyRepo.ListByUserID(ctx, userID, recentActivityLimit, 0)
	if err != nil {
		return 0, nil, err
	}

	return balance, entries, nil
}

// Add records earned points
func (s *LoyaltyServiceImpl) Add(ctx context.Context, userID uuid.UUID, points int, sourceRequestID *uuid.UUID) (*loyalty.Entry, error) {
	if points <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	return s.record(ctx, userID, points, sourceRequestID)
}

// Deduct redeems points. The sufficiency check and the insert run under a
// per-user advisory lock so concurrent redemptions cannot both pass the check.
func (s *LoyaltyServiceImpl) Deduct(ctx context.Context, userID uuid.UUID, points int, sourceRequestID *uuid.UUID) (*loyalty.Entry, error) {
	if points <= 0 {
		return nil, shared.ErrInvalidAmount
	}
	return s.record(ctx, userID, -points, sourceRequestID)
}

func (s *LoyaltyServiceImpl) record(ctx context.Context, userID uuid.UUID, points int, sourceRequestID *uuid.UUID) (*loyalty.Entry, error) {
	var entry *loyalty.Entry
	err := s.txManager.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.loyaltyRepo.WithTx(tx)

		if err := repo.AcquireUserLock(ctx, userID); err != nil {
			return err
		}

		if points < 0 {
			balance, err := repo.SumByUserID(ctx, userID)
			if err != nil {
				return err
			}
			if balance+points < 0 {
				return shared.ErrInsufficientPoints
			}
		}

		var err error
		entry, err = loyalty.NewEntry(userID, points, sourceRequestID)
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, entry); err != nil {
			return err
		}

		return s.recordEvent(ctx, tx, entry)
	})
	if err != nil {
		return nil, persistence.MapRetryable(err)
	}

	s.logger.Info("Loyalty points recorded",
		"user_id", userID.String(),
		"points", points,
	)
	return entry, nil
}

func (s *LoyaltyServiceImpl) recordEvent(ctx context.Context, tx pgx.Tx, entry *loyalty.Entry) error {
	event := shared.NewLedgerEvent(shared.EventPointsAdjusted, entry.UserID)
	event.Amount = decimal.Zero
	event.Points = entry.Points
	if entry.SourceRequestID != nil {
		event.Reference = entry.SourceRequestID.String()
	}
	event.CorrelationID = shared.CorrelationIDFromContext(ctx)

	message, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, message)
}
