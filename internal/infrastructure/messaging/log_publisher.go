package messaging

import (
	"context"
	"log/slog"

	"github.com/txshield/txshield/internal/domain/port"
	"github.com/txshield/txshield/pkg/events"
)

var _ port.EventPublisher = (*LogPublisher)(nil)

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each event. It never fails.
func (p *LogPublisher) Publish(_ context.Context, evts ...events.DomainEvent) error {
	for _, evt := range evts {
		p.logger.Info("domain event",
			slog.String("event_type", evt.EventType()),
			slog.String("event_id", evt.EventID().String()),
			slog.String("aggregate_id", evt.AggregateID().String()),
		)
	}
	return nil
}
