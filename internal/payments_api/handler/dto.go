package handler

// PayRequest represents a request to settle a booking
type PayRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Method    string `json:"method" binding:"required,oneof=cash wallet third_party"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            string `json:"id"`
	BookingID     string `json:"booking_id"`
	Method        string `json:"method"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
	InvoiceNumber string `json:"invoice_number"`
	WalletBalance string `json:"wallet_balance,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// RefundRequest represents a request to refund a payment
type RefundRequest struct {
	Reason string `json:"reason" binding:"required"`
	Amount string `json:"amount,omitempty"`
}

// RefundResponse represents a refund in API responses
type RefundResponse struct {
	RefundID      string `json:"refund_id"`
	PaymentID     string `json:"payment_id"`
	InvoiceNumber string `json:"invoice_number"`
	RefundAmount  string `json:"refund_amount"`
	Reason        string `json:"reason"`
	WalletBalance string `json:"wallet_balance,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// WalletResponse represents the wallet balance in API responses
type WalletResponse struct {
	UserID           string `json:"user_id"`
	Balance          string `json:"balance"`
	FormattedBalance string `json:"formatted_balance"`
	Currency         string `json:"currency"`
}

// TopUpRequest represents a wallet top-up request
type TopUpRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description,omitempty"`
}

// TopUpResponse represents the result of a wallet top-up
type TopUpResponse struct {
	EntryID             int64  `json:"entry_id"`
	Amount              string `json:"amount"`
	NewBalance          string `json:"new_balance"`
	FormattedNewBalance string `json:"formatted_new_balance"`
}

// WalletEntryResponse represents one wallet ledger entry in API responses
type WalletEntryResponse struct {
	ID            int64             `json:"id"`
	Kind          string            `json:"kind"`
	Amount        string            `json:"amount"`
	SignedAmount  string            `json:"signed_amount"`
	BalanceBefore string            `json:"balance_before"`
	BalanceAfter  string            `json:"balance_after"`
	Reference     string            `json:"reference,omitempty"`
	Description   string            `json:"description,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Status        string            `json:"status"`
	CreatedAt     string            `json:"created_at"`
}

// WalletStatsResponse represents aggregated wallet history in API responses
type WalletStatsResponse struct {
	TotalTopups      string `json:"total_topups"`
	TotalPayments    string `json:"total_payments"`
	TotalRefunds     string `json:"total_refunds"`
	TotalBonuses     string `json:"total_bonuses"`
	TransactionCount int64  `json:"transaction_count"`
}

// LoyaltyPointsResponse represents the points balance and recent activity
type LoyaltyPointsResponse struct {
	Balance  int                    `json:"balance"`
	Activity []LoyaltyEntryResponse `json:"activity"`
}

// LoyaltyEntryResponse represents one points movement in API responses
type LoyaltyEntryResponse struct {
	ID              int64  `json:"id"`
	Points          int    `json:"points"`
	SourceRequestID string `json:"source_request_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// LoyaltyAdjustRequest represents a points add or redeem request
type LoyaltyAdjustRequest struct {
	Points          int    `json:"points" binding:"required,gt=0"`
	SourceRequestID string `json:"source_request_id,omitempty" binding:"omitempty,uuid"`
}

// TransactionsQuery represents filters for wallet ledger history
type TransactionsQuery struct {
	Kind   string `form:"kind" binding:"omitempty,oneof=topup payment refund bonus deduction"`
	Status string `form:"status" binding:"omitempty,oneof=pending completed failed cancelled"`
}

// PaymentsQuery represents filters for payment history
type PaymentsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending paid failed refunded"`
	Method string `form:"method" binding:"omitempty,oneof=cash wallet third_party"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
