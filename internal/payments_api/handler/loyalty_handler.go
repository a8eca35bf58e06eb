package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tidyhome-payments-ledger/internal/domain/loyalty"
	"github.com/tidyhome-payments-ledger/internal/payments_api/middleware"
	"github.com/tidyhome-payments-ledger/internal/payments_api/service"
)

// LoyaltyHandler handles HTTP requests for loyalty points operations
type LoyaltyHandler struct {
	loyaltyService service.LoyaltyService
	logger         *slog.Logger
}

// NewLoyaltyHandler creates a new loyalty handler
func NewLoyaltyHandler(logger *slog.Logger, loyaltyService service.LoyaltyService) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyaltyService: loyaltyService,
		logger:         logger,
	}
}

// Points returns the principal's points balance and recent activity
func (h *LoyaltyHandler) Points(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	balance, entries, err := h.loyaltyService.Points(c.Request.Context(), principal)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	response := LoyaltyPointsResponse{Balance: balance}
	for _, entry := range entries {
		response.Activity = append(response.Activity, mapLoyaltyEntryToResponse(entry))
	}

	RespondOK(c, response)
}

// Add records earned points for the principal
func (h *LoyaltyHandler) Add(c *gin.Context) {
	h.adjust(c, false)
}

// Redeem deducts points from the principal's balance
func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	h.adjust(c, true)
}

func (h *LoyaltyHandler) adjust(c *gin.Context, redeem bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req LoyaltyAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var sourceRequestID *uuid.UUID
	if req.SourceRequestID != "" {
		id, err := uuid.Parse(req.SourceRequestID)
		if err != nil {
			RespondBadRequest(c, "Invalid source request ID")
			return
		}
		sourceRequestID = &id
	}

	var entry *loyalty.Entry
	var err error
	if redeem {
		entry, err = h.loyaltyService.Deduct(c.Request.Context(), principal, req.Points, sourceRequestID)
	} else {
		entry, err = h.loyaltyService.Add(c.Request.Context(), principal, req.Points, sourceRequestID)
	}
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapLoyaltyEntryToResponse(entry))
}

// mapLoyaltyEntryToResponse maps a points movement to its response DTO
func mapLoyaltyEntryToResponse(entry *loyalty.Entry) LoyaltyEntryResponse {
	response := LoyaltyEntryResponse{
		ID:        entry.ID,
		Points:    entry.Points,
		CreatedAt: entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.SourceRequestID != nil {
		response.SourceRequestID = entry.SourceRequestID.String()
	}
	return response
}
