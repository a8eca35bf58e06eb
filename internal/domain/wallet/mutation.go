package wallet

import (
	"github.com/shopspring/decimal"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// Mutation describes one requested balance change. Kind decides the sign;
// Amount is always positive.
type Mutation struct {
	Kind        shared.EntryKind
	Amount      decimal.Decimal
	Reference   string
	Description string
	Metadata    map[string]string
}

// Validate checks the mutation before any transaction opens
func (m Mutation) Validate() error {
	if !m.Kind.Valid() {
		return shared.ErrInvalidState{Entity: "ledger entry kind", Status: string(m.Kind)}
	}
	if m.Amount.Sign() <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}
