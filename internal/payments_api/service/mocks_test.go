package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/tidyhome-payments-ledger/internal/domain/booking"
	"github.com/tidyhome-payments-ledger/internal/domain/loyalty"
	"github.com/tidyhome-payments-ledger/internal/domain/outbox"
	"github.com/tidyhome-payments-ledger/internal/domain/payment"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/domain/wallet"
	"github.com/tidyhome-payments-ledger/internal/platform/persistence"
)

// fakeTxManager runs the transactional closure directly. Repository mocks
// return themselves from WithTx, so a nil pgx.Tx is never dereferenced.
type fakeTxManager struct{}

func (f *fakeTxManager) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// MockAccountRepo mocks wallet.AccountRepository
type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Account), args.Error(1)
}

func (m *MockAccountRepo) LockForUpdate(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Account), args.Error(1)
}

func (m *MockAccountRepo) UpdateBalance(ctx context.Context, account *wallet.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) wallet.AccountRepository {
	return m
}

// MockEntryRepo mocks wallet.EntryRepository
type MockEntryRepo struct {
	mock.Mock
}

func (m *MockEntryRepo) Create(ctx context.Context, entry *wallet.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepo) GetByID(ctx context.Context, id int64) (*wallet.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Entry), args.Error(1)
}

func (m *MockEntryRepo) ListByUserID(ctx context.Context, userID uuid.UUID, filter wallet.EntryFilter, limit, offset int) ([]*wallet.Entry, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet.Entry), args.Error(1)
}

func (m *MockEntryRepo) CountByUserID(ctx context.Context, userID uuid.UUID, filter wallet.EntryFilter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntryRepo) StatsByUserID(ctx context.Context, userID uuid.UUID) (*wallet.Stats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Stats), args.Error(1)
}

func (m *MockEntryRepo) WithTx(tx pgx.Tx) wallet.EntryRepository {
	return m
}

// MockOutboxRepo mocks outbox.Repository
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

// MockPaymentRepo mocks payment.Repository
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Payment, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) LockForUpdate(ctx context.Context, id, principal uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockPaymentRepo) ListByPrincipal(ctx context.Context, principal uuid.UUID, filter payment.Filter, limit, offset int) ([]*payment.Payment, error) {
	args := m.Called(ctx, principal, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) CountByPrincipal(ctx context.Context, principal uuid.UUID, filter payment.Filter) (int64, error) {
	args := m.Called(ctx, principal, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepo) GetByIDForPrincipal(ctx context.Context, id, principal uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepo) WithTx(tx pgx.Tx) payment.Repository {
	return m
}

// MockRefundRepo mocks payment.RefundRepository
type MockRefundRepo struct {
	mock.Mock
}

func (m *MockRefundRepo) Create(ctx context.Context, r *payment.Refund) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRefundRepo) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Refund, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockRefundRepo) WithTx(tx pgx.Tx) payment.RefundRepository {
	return m
}

// MockBookingGateway mocks booking.Gateway
type MockBookingGateway struct {
	mock.Mock
}

func (m *MockBookingGateway) GetBooking(ctx context.Context, id, principal uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingGateway) LockForUpdate(ctx context.Context, id, principal uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id, principal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingGateway) SetStatus(ctx context.Context, id uuid.UUID, status shared.BookingStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockBookingGateway) WithTx(tx pgx.Tx) booking.Gateway {
	return m
}

// MockLoyaltyRepo mocks loyalty.Repository
type MockLoyaltyRepo struct {
	mock.Mock
}

func (m *MockLoyaltyRepo) Create(ctx context.Context, entry *loyalty.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLoyaltyRepo) SumByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockLoyaltyRepo) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*loyalty.Entry, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*loyalty.Entry), args.Error(1)
}

func (m *MockLoyaltyRepo) AcquireUserLock(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockLoyaltyRepo) WithTx(tx pgx.Tx) loyalty.Repository {
	return m
}

// MockWalletService mocks the WalletService interface for payment tests
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Credit(ctx context.Context, userID uuid.UUID, mu wallet.Mutation) (*wallet.Entry, error) {
	args := m.Called(ctx, userID, mu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Entry), args.Error(1)
}

func (m *MockWalletService) Debit(ctx context.Context, userID uuid.UUID, mu wallet.Mutation) (*wallet.Entry, error) {
	args := m.Called(ctx, userID, mu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Entry), args.Error(1)
}

func (m *MockWalletService) CreditTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, mu wallet.Mutation) (*wallet.Entry, error) {
	args := m.Called(ctx, tx, userID, mu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Entry), args.Error(1)
}

func (m *MockWalletService) DebitTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, mu wallet.Mutation) (*wallet.Entry, error) {
	args := m.Called(ctx, tx, userID, mu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Entry), args.Error(1)
}

func (m *MockWalletService) Balance(ctx context.Context, userID uuid.UUID) (*wallet.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Account), args.Error(1)
}

func (m *MockWalletService) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*wallet.Entry, error) {
	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Entry), args.Error(1)
}

func (m *MockWalletService) Transactions(ctx context.Context, userID uuid.UUID, filter wallet.EntryFilter, page, perPage int) ([]*wallet.Entry, int64, error) {
	args := m.Called(ctx, userID, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*wallet.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletService) Stats(ctx context.Context, userID uuid.UUID) (*wallet.Stats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Stats), args.Error(1)
}

var (
	_ wallet.AccountRepository = (*MockAccountRepo)(nil)
	_ wallet.EntryRepository   = (*MockEntryRepo)(nil)
	_ outbox.Repository        = (*MockOutboxRepo)(nil)
	_ payment.Repository       = (*MockPaymentRepo)(nil)
	_ payment.RefundRepository = (*MockRefundRepo)(nil)
	_ booking.Gateway          = (*MockBookingGateway)(nil)
	_ loyalty.Repository       = (*MockLoyaltyRepo)(nil)
	_ WalletService            = (*MockWalletService)(nil)
	_ persistence.TxManager    = (*fakeTxManager)(nil)
)

func walletAccount(userID uuid.UUID, balance string) *wallet.Account {
	now := time.Now()
	return &wallet.Account{
		UserID:    userID,
		Balance:   decimal.RequireFromString(balance),
		Currency:  "USD",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
