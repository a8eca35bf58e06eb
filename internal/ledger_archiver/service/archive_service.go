package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tidyhome-payments-ledger/internal/domain/archive"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

type ArchiveServiceImpl struct {
	archiveRepo archive.Repository
	logger      *slog.Logger
}

func NewArchiveService(archiveRepo archive.Repository, logger *slog.Logger) ArchiveService {
	return &ArchiveServiceImpl{
		archiveRepo: archiveRepo,
		logger:      logger,
	}
}

// ArchiveEvent writes one ledger event to the MongoDB archive. Kafka delivers
// at least once, so a duplicate event ID is treated as success.
func (s *ArchiveServiceImpl) ArchiveEvent(ctx context.Context, event *shared.LedgerEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	if event.EventID == uuid.Nil {
		// Without an event ID there is no dedupe key; retrying cannot help.
		logger.Warn("Discarding ledger event without an event ID", "type", event.Type, "user_id", event.UserID.String())
		return nil
	}

	logger.Info("Archiving ledger event",
		"event_id", event.EventID.String(),
		"type", event.Type,
		"user_id", event.UserID.String(),
	)

	if err := s.archiveRepo.Save(ctx, event); err != nil {
		if errors.Is(err, archive.ErrDuplicateEvent{}) {
			logger.Info("Ledger event already archived, skipping", "event_id", event.EventID.String())
			return nil
		}
		logger.Error("Failed to archive ledger event", "event_id", event.EventID.String(), "error", err)
		return fmt.Errorf("failed to archive ledger event %s: %w", event.EventID.String(), err)
	}

	logger.Info("Successfully archived ledger event", "event_id", event.EventID.String())
	return nil
}
