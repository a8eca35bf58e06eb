package shared

// EntryKind defines the possible wallet ledger entry kinds
type EntryKind string

const (
	EntryKindTopup     EntryKind = "topup"
	EntryKindPayment   EntryKind = "payment"
	EntryKindRefund    EntryKind = "refund"
	EntryKindBonus     EntryKind = "bonus"
	EntryKindDeduction EntryKind = "deduction"
)

// IsCredit reports whether the kind increases the wallet balance
func (k EntryKind) IsCredit() bool {
	return k == EntryKindTopup || k == EntryKindRefund || k == EntryKindBonus
}

// IsDebit reports whether the kind decreases the wallet balance
func (k EntryKind) IsDebit() bool {
	return k == EntryKindPayment || k == EntryKindDeduction
}

// Valid reports whether the kind is one of the known entry kinds
func (k EntryKind) Valid() bool {
	return k.IsCredit() || k.IsDebit()
}

// EntryStatus defines wallet ledger entry states
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
	EntryStatusCancelled EntryStatus = "cancelled"
)

// PaymentMethod defines how a booking is paid
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodWallet     PaymentMethod = "wallet"
	PaymentMethodThirdParty PaymentMethod = "third_party"
)

// Valid reports whether the method is one of the accepted payment methods
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodWallet || m == PaymentMethodThirdParty
}

// PaymentStatus defines payment lifecycle states
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// BookingStatus defines booking lifecycle states owned by the booking collaborator.
// The payment core only relies on the pending -> in_progress transition.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAssigned   BookingStatus = "assigned"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// OutboxStatus defines ledger event publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
