package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/payment"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/payments_api/middleware"
	"github.com/tidyhome-payments-ledger/internal/payments_api/service"
)

// IdempotencyKeyHeader carries the client-supplied key that makes payment and
// refund requests safe to retry
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles HTTP requests for payment operations
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Create settles a pending booking. Replaying an Idempotency-Key returns the
// original payment with a 200 instead of a 201.
func (h *PaymentHandler) Create(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		RespondBadRequest(c, "Invalid booking ID")
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	result, err := h.paymentService.Pay(c.Request.Context(), principal, bookingID, shared.PaymentMethod(req.Method), idempotencyKey)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	response := mapPaymentToResponse(result.Payment, result.WalletBalance)
	if result.Replayed {
		RespondOK(c, response)
		return
	}
	RespondCreated(c, response)
}

// Refund reverses one of the principal's paid payments
func (h *PaymentHandler) Refund(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid payment ID")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var amount *decimal.Decimal
	if req.Amount != "" {
		parsed, parseErr := decimal.NewFromString(req.Amount)
		if parseErr != nil {
			RespondBadRequest(c, "Invalid refund amount")
			return
		}
		amount = &parsed
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)

	result, err := h.paymentService.Refund(c.Request.Context(), principal, paymentID, amount, req.Reason, idempotencyKey)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	response := RefundResponse{
		RefundID:      result.Refund.ID.String(),
		PaymentID:     result.Payment.ID.String(),
		InvoiceNumber: result.Payment.InvoiceNumber,
		RefundAmount:  result.Refund.Amount.StringFixed(2),
		Reason:        result.Refund.Reason,
		CreatedAt:     result.Refund.CreatedAt.Format(time.RFC3339),
	}
	if result.WalletBalance != nil {
		response.WalletBalance = result.WalletBalance.StringFixed(2)
	}

	RespondOK(c, response)
}

// List returns the principal's paginated payment history
func (h *PaymentHandler) List(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var query PaymentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid filter parameters")
		return
	}
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	filter := payment.Filter{
		Status: shared.PaymentStatus(query.Status),
		Method: shared.PaymentMethod(query.Method),
	}

	payments, total, err := h.paymentService.List(c.Request.Context(), principal, filter, pagination.Page, pagination.PerPage)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	var responses []PaymentResponse
	for _, p := range payments {
		responses = append(responses, mapPaymentToResponse(p, nil))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// GetByID returns one of the principal's payments, 404 for foreign payments
func (h *PaymentHandler) GetByID(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid payment ID")
		return
	}

	p, err := h.paymentService.Get(c.Request.Context(), principal, paymentID)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapPaymentToResponse(p, nil))
}

// mapPaymentToResponse maps a payment entity to its response DTO
func mapPaymentToResponse(p *payment.Payment, walletBalance *decimal.Decimal) PaymentResponse {
	response := PaymentResponse{
		ID:            p.ID.String(),
		BookingID:     p.BookingID.String(),
		Method:        string(p.Method),
		Amount:        p.Amount.StringFixed(2),
		Status:        string(p.Status),
		InvoiceNumber: p.InvoiceNumber,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if walletBalance != nil {
		response.WalletBalance = walletBalance.StringFixed(2)
	}
	return response
}
