package handler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/booking"
	"github.com/tidyhome-payments-ledger/internal/domain/payment"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/domain/wallet"
)

// respondDomainError maps domain errors onto the response envelope. Anything
// unrecognized is a 500 and gets logged; business failures log at the service
// layer already.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	var invalidState shared.ErrInvalidState
	var dupActive payment.ErrDuplicateActivePayment

	switch {
	case errors.Is(err, shared.ErrMissingIdempotencyKey):
		RespondBadRequest(c, "Idempotency-Key header is required")
	case errors.Is(err, shared.ErrInvalidAmount):
		RespondBadRequest(c, "Amount must be positive and within the allowed bounds")
	case errors.Is(err, shared.ErrInsufficientFunds):
		RespondBadRequest(c, "Insufficient wallet balance")
	case errors.Is(err, shared.ErrInsufficientPoints):
		RespondBadRequest(c, "Insufficient loyalty points")
	case errors.Is(err, shared.ErrRetryable):
		RespondServiceUnavailable(c, "")
	case errors.Is(err, booking.ErrBookingNotFound{}):
		RespondNotFound(c, "Booking not found")
	case errors.Is(err, payment.ErrPaymentNotFound{}):
		RespondNotFound(c, "Payment not found")
	case errors.Is(err, wallet.ErrAccountNotFound{}):
		RespondNotFound(c, "Wallet not found")
	case errors.As(err, &invalidState):
		RespondBadRequest(c, invalidState.Error())
	case errors.As(err, &dupActive):
		RespondConflict(c, "Booking already has an active payment")
	default:
		logger.Error("Unhandled error", "error", err)
		RespondInternalError(c)
	}
}

// formatAmount renders a decimal with two fraction digits and thousands
// separators, e.g. 1234.5 -> "1,234.50"
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	out := b.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
