package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/domain/wallet"
	"github.com/tidyhome-payments-ledger/internal/payments_api/middleware"
	"github.com/tidyhome-payments-ledger/internal/payments_api/service"
)

// WalletHandler handles HTTP requests for wallet operations
type WalletHandler struct {
	walletService service.WalletService
	logger        *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(logger *slog.Logger, walletService service.WalletService) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// Show returns the principal's wallet balance, creating the wallet on first use
func (h *WalletHandler) Show(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	acc, err := h.walletService.Balance(c.Request.Context(), principal)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, WalletResponse{
		UserID:           acc.UserID.String(),
		Balance:          acc.Balance.StringFixed(2),
		FormattedBalance: formatAmount(acc.Balance),
		Currency:         acc.Currency,
	})
}

// TopUp credits the principal's wallet
func (h *WalletHandler) TopUp(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	entry, err := h.walletService.TopUp(c.Request.Context(), principal, amount, req.Description)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, TopUpResponse{
		EntryID:             entry.ID,
		Amount:              entry.Amount.StringFixed(2),
		NewBalance:          entry.BalanceAfter.StringFixed(2),
		FormattedNewBalance: formatAmount(entry.BalanceAfter),
	})
}

// Transactions returns the principal's paginated wallet ledger history
func (h *WalletHandler) Transactions(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var query TransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid filter parameters")
		return
	}
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	filter := wallet.EntryFilter{
		Kind:   shared.EntryKind(query.Kind),
		Status: shared.EntryStatus(query.Status),
	}

	entries, total, err := h.walletService.Transactions(c.Request.Context(), principal, filter, pagination.Page, pagination.PerPage)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	var responses []WalletEntryResponse
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, pagination.Page, pagination.PerPage, int(total))
}

// Stats returns the principal's aggregated wallet history
func (h *WalletHandler) Stats(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	stats, err := h.walletService.Stats(c.Request.Context(), principal)
	if err != nil {
		respondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, WalletStatsResponse{
		TotalTopups:      stats.TotalTopups.StringFixed(2),
		TotalPayments:    stats.TotalPayments.StringFixed(2),
		TotalRefunds:     stats.TotalRefunds.StringFixed(2),
		TotalBonuses:     stats.TotalBonuses.StringFixed(2),
		TransactionCount: stats.EntryCount,
	})
}

// mapEntryToResponse maps a wallet ledger entry to its response DTO
func mapEntryToResponse(entry *wallet.Entry) WalletEntryResponse {
	return WalletEntryResponse{
		ID:            entry.ID,
		Kind:          string(entry.Kind),
		Amount:        entry.Amount.StringFixed(2),
		SignedAmount:  entry.Signed().StringFixed(2),
		BalanceBefore: entry.BalanceBefore.StringFixed(2),
		BalanceAfter:  entry.BalanceAfter.StringFixed(2),
		Reference:     entry.Reference,
		Description:   entry.Description,
		Metadata:      entry.Metadata,
		Status:        string(entry.Status),
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
	}
}
