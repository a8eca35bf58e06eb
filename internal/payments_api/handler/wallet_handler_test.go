package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/domain/wallet"
	"github.com/tidyhome-payments-ledger/internal/payments_api/middleware"
	"github.com/tidyhome-payments-ledger/internal/payments_api/service"
)

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

var _ service.WalletService = (*MockWalletService)(nil)

// setupTestRouter builds a router with the principal middleware applied, the
// same way the real server wires it
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Principal())
	return r
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestWalletHandler_Show(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		userID := uuid.New()
		now := time.Now()
		mockService.On("Balance", mock.Anything, userID).Return(&wallet.Account{
			UserID:    userID,
			Balance:   decimal.RequireFromString("1234.50"),
			Currency:  "USD",
			CreatedAt: now,
			UpdatedAt: now,
		}, nil)

		router := setupTestRouter()
		router.GET("/wallet", handler.Show)

		req, _ := http.NewRequest(http.MethodGet, "/wallet", nil)
		req.Header.Set(middleware.PrincipalHeader, userID.String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevelResponse Response
		err := json.Unmarshal(rr.Body.Bytes(), &topLevelResponse)
		require.NoError(t, err)
		require.NotNil(t, topLevelResponse.Data)

		var body WalletResponse
		dataBytes, _ := json.Marshal(topLevelResponse.Data)
		require.NoError(t, json.Unmarshal(dataBytes, &body))

		assert.Equal(t, userID.String(), body.UserID)
		assert.Equal(t, "1234.50", body.Balance)
		assert.Equal(t, "1,234.50", body.FormattedBalance)
		assert.Equal(t, "USD", body.Currency)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingPrincipalHeader", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/wallet", handler.Show)

		req, _ := http.NewRequest(http.MethodGet, "/wallet", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidPrincipalHeader", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/wallet", handler.Show)

		req, _ := http.NewRequest(http.MethodGet, "/wallet", nil)
		req.Header.Set(middleware.PrincipalHeader, "not-a-uuid")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_TopUp(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		userID := uuid.New()
		amount := decimal.RequireFromString("100.00")
		mockService.On("TopUp", mock.Anything, userID, amount, "gift card").Return(&wallet.Entry{
			ID:            7,
			UserID:        userID,
			Kind:          shared.EntryKindTopup,
			Amount:        amount,
			BalanceBefore: decimal.Zero,
			BalanceAfter:  amount,
			Status:        shared.EntryStatusCompleted,
			CreatedAt:     time.Now(),
		}, nil)

		router := setupTestRouter()
		router.POST("/wallet/topup", handler.TopUp)

		jsonBody, _ := json.Marshal(TopUpRequest{Amount: "100.00", Description: "gift card"})
		req, _ := http.NewRequest(http.MethodPost, "/wallet/topup", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.PrincipalHeader, userID.String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var topLevelResponse Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevelResponse))

		var body TopUpResponse
		dataBytes, _ := json.Marshal(topLevelResponse.Data)
		require.NoError(t, json.Unmarshal(dataBytes, &body))

		assert.Equal(t, int64(7), body.EntryID)
		assert.Equal(t, "100.00", body.Amount)
		assert.Equal(t, "100.00", body.NewBalance)
		mockService.AssertExpectations(t)
	})

	t.Run("MalformedAmount", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/wallet/topup", handler.TopUp)

		jsonBody, _ := json.Marshal(TopUpRequest{Amount: "ten dollars"})
		req, _ := http.NewRequest(http.MethodPost, "/wallet/topup", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.PrincipalHeader, uuid.New().String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("NonPositiveAmount", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		userID := uuid.New()
		mockService.On("TopUp", mock.Anything, userID, mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.IsZero()
		}), "").Return(nil, shared.ErrInvalidAmount)

		router := setupTestRouter()
		router.POST("/wallet/topup", handler.TopUp)

		jsonBody, _ := json.Marshal(TopUpRequest{Amount: "0"})
		req, _ := http.NewRequest(http.MethodPost, "/wallet/topup", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.PrincipalHeader, userID.String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "BAD_REQUEST", response.Error.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_Transactions(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		userID := uuid.New()
		entries := []*wallet.Entry{
			{
				ID:            2,
				UserID:        userID,
				Kind:          shared.EntryKindPayment,
				Amount:        decimal.RequireFromString("30.00"),
				BalanceBefore: decimal.RequireFromString("50.00"),
				BalanceAfter:  decimal.RequireFromString("20.00"),
				Status:        shared.EntryStatusCompleted,
				CreatedAt:     time.Now(),
			},
			{
				ID:            1,
				UserID:        userID,
				Kind:          shared.EntryKindTopup,
				Amount:        decimal.RequireFromString("50.00"),
				BalanceBefore: decimal.Zero,
				BalanceAfter:  decimal.RequireFromString("50.00"),
				Status:        shared.EntryStatusCompleted,
				CreatedAt:     time.Now(),
			},
		}
		mockService.On("Transactions", mock.Anything, userID, wallet.EntryFilter{}, 1, 10).
			Return(entries, int64(2), nil)

		router := setupTestRouter()
		router.GET("/wallet/transactions", handler.Transactions)

		req, _ := http.NewRequest(http.MethodGet, "/wallet/transactions", nil)
		req.Header.Set(middleware.PrincipalHeader, userID.String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var topLevelResponse Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevelResponse))
		require.NotNil(t, topLevelResponse.Meta)
		assert.Equal(t, 1, topLevelResponse.Meta.Page)
		assert.Equal(t, 2, topLevelResponse.Meta.TotalItems)

		var body []WalletEntryResponse
		dataBytes, _ := json.Marshal(topLevelResponse.Data)
		require.NoError(t, json.Unmarshal(dataBytes, &body))
		require.Len(t, body, 2)
		assert.Equal(t, "-30.00", body[0].SignedAmount)
		assert.Equal(t, "50.00", body[1].SignedAmount)
		mockService.AssertExpectations(t)
	})

	t.Run("KindFilter", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		userID := uuid.New()
		mockService.On("Transactions", mock.Anything, userID, wallet.EntryFilter{Kind: shared.EntryKindTopup}, 1, 10).
			Return([]*wallet.Entry{}, int64(0), nil)

		router := setupTestRouter()
		router.GET("/wallet/transactions", handler.Transactions)

		req, _ := http.NewRequest(http.MethodGet, "/wallet/transactions?kind=topup", nil)
		req.Header.Set(middleware.PrincipalHeader, userID.String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidKindFilter", func(t *testing.T) {
		mockService := new(MockWalletService)
		handler := NewWalletHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/wallet/transactions", handler.Transactions)

		req, _ := http.NewRequest(http.MethodGet, "/wallet/transactions?kind=withdrawal", nil)
		req.Header.Set(middleware.PrincipalHeader, uuid.New().String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestWalletHandler_Stats(t *testing.T) {
	mockService := new(MockWalletService)
	handler := NewWalletHandler(testLogger(), mockService)

	userID := uuid.New()
	mockService.On("Stats", mock.Anything, userID).Return(&wallet.Stats{
		TotalTopups:   decimal.RequireFromString("150.00"),
		TotalPayments: decimal.RequireFromString("30.00"),
		TotalRefunds:  decimal.Zero,
		TotalBonuses:  decimal.RequireFromString("5.00"),
		EntryCount:    4,
	}, nil)

	router := setupTestRouter()
	router.GET("/wallet/stats", handler.Stats)

	req, _ := http.NewRequest(http.MethodGet, "/wallet/stats", nil)
	req.Header.Set(middleware.PrincipalHeader, userID.String())
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var topLevelResponse Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevelResponse))

	var body WalletStatsResponse
	dataBytes, _ := json.Marshal(topLevelResponse.Data)
	require.NoError(t, json.Unmarshal(dataBytes, &body))

	assert.Equal(t, "150.00", body.TotalTopups)
	assert.Equal(t, int64(4), body.TransactionCount)
	mockService.AssertExpectations(t)
}
