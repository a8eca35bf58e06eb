// Package mongo provides the MongoDB implementation of the ledger event
// archive. The collection is append-only from the consumer's point of view;
// the unique index on event_id absorbs at-least-once redelivery.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tidyhome-payments-ledger/internal/domain/archive"
	"github.com/tidyhome-payments-ledger/internal/domain/shared"
)

const (
	// ArchiveCollectionName is the name of the ledger event collection in MongoDB
	ArchiveCollectionName = "ledger_events"
)

// eventDocument is the stored shape of a ledger event. UUIDs and decimals are
// kept as strings so the documents stay queryable without driver codecs.
type eventDocument struct {
	EventID       string            `bson:"event_id"`
	Type          string            `bson:"type"`
	UserID        string            `bson:"user_id"`
	Amount        string            `bson:"amount"`
	BalanceAfter  *string           `bson:"balance_after,omitempty"`
	Points        int               `bson:"points,omitempty"`
	Currency      string            `bson:"currency,omitempty"`
	Reference     string            `bson:"reference,omitempty"`
	Description   string            `bson:"description,omitempty"`
	Metadata      map[string]string `bson:"metadata,omitempty"`
	CorrelationID string            `bson:"correlation_id,omitempty"`
	OccurredAt    time.Time         `bson:"occurred_at"`
}

func toDocument(event *shared.LedgerEvent) *eventDocument {
	doc := &eventDocument{
		EventID:       event.EventID.String(),
		Type:          string(event.Type),
		UserID:        event.UserID.String(),
		Amount:        event.Amount.String(),
		Points:        event.Points,
		Currency:      event.Currency,
		Reference:     event.Reference,
		Description:   event.Description,
		Metadata:      event.Metadata,
		CorrelationID: event.CorrelationID,
		OccurredAt:    event.OccurredAt,
	}
	if event.BalanceAfter != nil {
		s := event.BalanceAfter.String()
		doc.BalanceAfter = &s
	}
	return doc
}

func (d *eventDocument) toEvent() (*shared.LedgerEvent, error) {
	eventID, err := uuid.Parse(d.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid archived event_id %q: %w", d.EventID, err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid archived user_id %q: %w", d.UserID, err)
	}
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid archived amount %q: %w", d.Amount, err)
	}

	event := &shared.LedgerEvent{
		EventID:       eventID,
		Type:          shared.EventType(d.Type),
		UserID:        userID,
		Amount:        amount,
		Points:        d.Points,
		Currency:      d.Currency,
		Reference:     d.Reference,
		Description:   d.Description,
		Metadata:      d.Metadata,
		CorrelationID: d.CorrelationID,
		OccurredAt:    d.OccurredAt,
	}
	if d.BalanceAfter != nil {
		balance, err := decimal.NewFromString(*d.BalanceAfter)
		if err != nil {
			return nil, fmt.Errorf("invalid archived balance_after %q: %w", *d.BalanceAfter, err)
		}
		event.BalanceAfter = &balance
	}
	return event, nil
}

// ArchiveRepository implements the archive.Repository interface for MongoDB
type ArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewArchiveRepository creates a new MongoDB archive repository and ensures
// the unique event_id index exists.
func NewArchiveRepository(ctx context.Context, logger *slog.Logger, db *mongo.Database) (archive.Repository, error) {
	collection := db.Collection(ArchiveCollectionName)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("failed to create archive event_id index: %w", err)
	}

	return &ArchiveRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Save stores an archived ledger event.
// Returns ErrDuplicateEvent when the event ID was already archived.
func (r *ArchiveRepository) Save(ctx context.Context, event *shared.LedgerEvent) error {
	collection := r.db.Collection(ArchiveCollectionName)

	_, err := collection.InsertOne(ctx, toDocument(event))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return archive.ErrDuplicateEvent{EventID: event.EventID}
		}
		r.logger.Error("Failed to archive ledger event",
			"event_id", event.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to archive ledger event: %w", err)
	}

	return nil
}

// GetByEventID retrieves an archived event by its ID.
// Returns ErrEventNotFound if no event was archived under that ID.
func (r *ArchiveRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*shared.LedgerEvent, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"event_id": eventID.String()}
	var doc eventDocument
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, archive.ErrEventNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get archived ledger event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived ledger event: %w", err)
	}

	return doc.toEvent()
}

// ListByUserID retrieves paginated archived events for a user.
// Results are sorted by occurrence time in descending order (newest first).
func (r *ArchiveRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*shared.LedgerEvent, error) {
	filter := bson.M{"user_id": userID.String()}
	return r.list(ctx, filter, limit, offset)
}

// CountByUserID counts the total number of archived events for a user
func (r *ArchiveRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	filter := bson.M{"user_id": userID.String()}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count archived ledger events",
			"user_id", userID.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count archived ledger events: %w", err)
	}

	return count, nil
}

// ListByTimeRange retrieves paginated archived events within the time window.
// Results are sorted by occurrence time in descending order for recent-first access.
func (r *ArchiveRepository) ListByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*shared.LedgerEvent, error) {
	filter := bson.M{
		"occurred_at": bson.M{
			"$gte": startTime,
			"$lte": endTime,
		},
	}
	return r.list(ctx, filter, limit, offset)
}

func (r *ArchiveRepository) list(ctx context.Context, filter bson.M, limit, offset int) ([]*shared.LedgerEvent, error) {
	collection := r.db.Collection(ArchiveCollectionName)

	opts := options.Find().
		SetSort(bson.M{"occurred_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list archived ledger events", "error", err)
		return nil, fmt.Errorf("failed to list archived ledger events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*shared.LedgerEvent
	for cursor.Next(ctx) {
		var doc eventDocument
		if err := cursor.Decode(&doc); err != nil {
			r.logger.Error("Failed to decode archived ledger event", "error", err)
			return nil, fmt.Errorf("failed to decode archived ledger event: %w", err)
		}
		event, err := doc.toEvent()
		if err != nil {
			r.logger.Error("Skipping malformed archived ledger event", "error", err)
			continue
		}
		events = append(events, event)
	}

	if err := cursor.Err(); err != nil {
		r.logger.Error("Error iterating over archived ledger events", "error", err)
		return nil, fmt.Errorf("error iterating over archived ledger events: %w", err)
	}

	return events, nil
}
