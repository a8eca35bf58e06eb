package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tidyhome-payments-ledger/internal/domain/outbox"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
	"github.com/tidyhome-payments-ledger/internal/platform/messaging/producers"
)

// EventPublisher pushes a single outbox row onto the ledger events stream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent publishes one outbox message to Kafka and deletes the row once
// delivery is confirmed. Rows with payloads that no longer unmarshal are
// parked as FAILED_TO_PUBLISH instead of being retried forever.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to unmarshal ledger event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	// Add correlation ID to logger
	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to Kafka", "outbox_id", message.ID, "event_id", message.EventID, "type", event.Type)

	// Key by user so every event for one wallet lands on the same partition
	// and the archiver sees them in commit order.
	if err := p.producer.Publish(ctx, event.UserID.String(), event); err != nil {
		logger.Error("Failed to publish ledger event to Kafka", "outbox_id", message.ID, "event_id", message.EventID, "error", err)
		return fmt.Errorf("failed to publish ledger event %s: %w", message.EventID, err)
	}

	// Delivery is acknowledged, the row has served its purpose.
	if err := p.outboxRepo.Delete(ctx, message.ID); err != nil {
		logger.Error("Failed to delete outbox message after publish",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		return fmt.Errorf("kafka write for %s OK, but failed to delete outbox %d: %w", message.EventID, message.ID, err)
	}

	logger.Info("Outbox message successfully published and removed", "outbox_id", message.ID, "event_id", message.EventID)
	return nil
}
