package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/pkg/events"
)

// FraudStats is the aggregate view over a set of records.
type FraudStats struct {
	Total      int64 `json:"total"`
	Fraudulent int64 `json:"fraudulent"`
}

// RecordFilter narrows list and stats queries. A nil OwnerID means every owner.
type RecordFilter struct {
	OwnerID   *uuid.UUID
	FraudOnly bool
	Limit     int
	Offset    int
}

// TransactionRepository is the append-only store of scored transactions.
type TransactionRepository interface {
	// Append durably stores a new record. There is no update or delete.
	Append(ctx context.Context, record *model.TransactionRecord) error

	// List returns matching records, newest first.
	List(ctx context.Context, filter RecordFilter) ([]*model.TransactionRecord, error)

	// Stats counts matching records and the fraudulent ones among them in one
	// snapshot, so Fraudulent never exceeds Total. FraudOnly, Limit and Offset
	// are ignored.
	Stats(ctx context.Context, filter RecordFilter) (FraudStats, error)
}

// EventPublisher publishes domain events to the messaging infrastructure.
type EventPublisher interface {
	Publish(ctx context.Context, evts ...events.DomainEvent) error
}
