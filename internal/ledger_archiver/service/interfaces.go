package service

import (
	"context"

	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

// ArchiveService defines the interface for archiving ledger events consumed
// from the events stream.
type ArchiveService interface {
	ArchiveEvent(ctx context.Context, event *shared.LedgerEvent) error
}
