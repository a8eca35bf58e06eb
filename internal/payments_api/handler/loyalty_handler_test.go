package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidyhome-payments-ledger/internal/domain/loyalty"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/payments_api/middleware"
	"github.com/tidyhome-payments-ledger/internal/payments_api/service"
)

type MockLoyaltyService struct {
	mock.Mock
}

func (m *MockLoyaltyService) Points(ctx context.Context, userID uuid.UUID) (int, []*loyalty.Entry, error) {
	args := m.Called(ctx, userID)
	if args.Get(1) == nil {
		return args.Int(0), nil, args.Error(2)
	}
	return args.Int(0), args.Get(1).([]*loyalty.Entry), args.Error(2)
}

func (m *MockLoyaltyService) Add(ctx context.Context, userID uuid.UUID, points int, sourceRequestID *uuid.UUID) (*loyalty.Entry, error) {
	args := m.Called(ctx, userID, points, sourceRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Entry), args.Error(1)
}

func (m *MockLoyaltyService) Deduct(ctx context.Context, userID uuid.UUID, points int, sourceRequestID *uuid.UUID) (*loyalty.Entry, error) {
	args := m.Called(ctx, userID, points, sourceRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Entry), args.Error(1)
}

var _ service.LoyaltyService = (*MockLoyaltyService)(nil)

func TestLoyaltyHandler_Points(t *testing.T) {
	mockService := new(MockLoyaltyService)
	handler := NewLoyaltyHandler(testLogger(), mockService)

	userID := uuid.New()
	entries := []*loyalty.Entry{
		{ID: 2, UserID: userID, Points: -50, CreatedAt: time.Now()},
		{ID: 1, UserID: userID, Points: 200, CreatedAt: time.Now()},
	}
	mockService.On("Points", mock.Anything, userID).Return(150, entries, nil)

	router := setupTestRouter()
	router.GET("/loyalty/points", handler.Points)

	req, _ := http.NewRequest(http.MethodGet, "/loyalty/points", nil)
	req.Header.Set(middleware.PrincipalHeader, userID.String())
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var topLevelResponse Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevelResponse))

	var body LoyaltyPointsResponse
	dataBytes, _ := json.Marshal(topLevelResponse.Data)
	require.NoError(t, json.Unmarshal(dataBytes, &body))

	assert.Equal(t, 150, body.Balance)
	require.Len(t, body.Activity, 2)
	assert.Equal(t, -50, body.Activity[0].Points)
	mockService.AssertExpectations(t)
}

func TestLoyaltyHandler_Add(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLoyaltyService)
		handler := NewLoyaltyHandler(logger, mockService)

		userID := uuid.New()
		sourceID := uuid.New()
		mockService.On("Add", mock.Anything, userID, 50, mock.MatchedBy(func(id *uuid.UUID) bool {
			return id != nil && *id == sourceID
		})).Return(&loyalty.Entry{
			ID:              3,
			UserID:          userID,
			Points:          50,
			SourceRequestID: &sourceID,
			CreatedAt:       time.Now(),
		}, nil)

		router := setupTestRouter()
		router.POST("/loyalty/points", handler.Add)

		jsonBody, _ := json.Marshal(LoyaltyAdjustRequest{Points: 50, SourceRequestID: sourceID.String()})
		req, _ := http.NewRequest(http.MethodPost, "/loyalty/points", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.PrincipalHeader, userID.String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var topLevelResponse Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevelResponse))

		var body LoyaltyEntryResponse
		dataBytes, _ := json.Marshal(topLevelResponse.Data)
		require.NoError(t, json.Unmarshal(dataBytes, &body))

		assert.Equal(t, 50, body.Points)
		assert.Equal(t, sourceID.String(), body.SourceRequestID)
		mockService.AssertExpectations(t)
	})

	t.Run("NonPositivePointsFailValidation", func(t *testing.T) {
		mockService := new(MockLoyaltyService)
		handler := NewLoyaltyHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/loyalty/points", handler.Add)

		req, _ := http.NewRequest(http.MethodPost, "/loyalty/points", bytes.NewBufferString(`{"points": -10}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.PrincipalHeader, uuid.New().String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidSourceRequestID", func(t *testing.T) {
		mockService := new(MockLoyaltyService)
		handler := NewLoyaltyHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/loyalty/points", handler.Add)

		req, _ := http.NewRequest(http.MethodPost, "/loyalty/points", bytes.NewBufferString(`{"points": 10, "source_request_id": "booking-42"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.PrincipalHeader, uuid.New().String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestLoyaltyHandler_Redeem(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLoyaltyService)
		handler := NewLoyaltyHandler(logger, mockService)

		userID := uuid.New()
		mockService.On("Deduct", mock.Anything, userID, 100, (*uuid.UUID)(nil)).Return(&loyalty.Entry{
			ID:        4,
			UserID:    userID,
			Points:    -100,
			CreatedAt: time.Now(),
		}, nil)

		router := setupTestRouter()
		router.POST("/loyalty/redeem", handler.Redeem)

		jsonBody, _ := json.Marshal(LoyaltyAdjustRequest{Points: 100})
		req, _ := http.NewRequest(http.MethodPost, "/loyalty/redeem", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.PrincipalHeader, userID.String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var topLevelResponse Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topLevelResponse))

		var body LoyaltyEntryResponse
		dataBytes, _ := json.Marshal(topLevelResponse.Data)
		require.NoError(t, json.Unmarshal(dataBytes, &body))

		assert.Equal(t, -100, body.Points)
		mockService.AssertExpectations(t)
	})

	t.Run("InsufficientPoints", func(t *testing.T) {
		mockService := new(MockLoyaltyService)
		handler := NewLoyaltyHandler(logger, mockService)

		userID := uuid.New()
		mockService.On("Deduct", mock.Anything, userID, 100, (*uuid.UUID)(nil)).
			Return(nil, shared.ErrInsufficientPoints)

		router := setupTestRouter()
		router.POST("/loyalty/redeem", handler.Redeem)

		jsonBody, _ := json.Marshal(LoyaltyAdjustRequest{Points: 100})
		req, _ := http.NewRequest(http.MethodPost, "/loyalty/redeem", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.PrincipalHeader, userID.String())
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var response Response
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
		require.NotNil(t, response.Error)
		assert.Equal(t, "Insufficient loyalty points", response.Error.Message)
		mockService.AssertExpectations(t)
	})
}
