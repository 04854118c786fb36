package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/txshield/txshield/internal/application/dto"
	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/port"
	"github.com/txshield/txshield/internal/domain/service"
	"github.com/txshield/txshield/internal/domain/valueobject"
)

// ScoreTransaction scores a submitted transaction, appends the audit record
// and publishes its domain events.
type ScoreTransaction struct {
	scorer    service.Scorer
	repo      port.TransactionRepository
	publisher port.EventPublisher
	cache     port.StatsCache
	logger    *slog.Logger
	metrics   *scoringInstruments
}

// NewScoreTransaction creates a new ScoreTransaction use case. cache may be nil.
func NewScoreTransaction(
	scorer service.Scorer,
	repo port.TransactionRepository,
	publisher port.EventPublisher,
	cache port.StatsCache,
	logger *slog.Logger,
) *ScoreTransaction {
	instruments, err := newScoringInstruments()
	if err != nil {
		logger.Warn("scoring metrics disabled", "error", err)
	}
	return &ScoreTransaction{
		scorer:    scorer,
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		logger:    logger,
		metrics:   instruments,
	}
}

// Execute runs the full scoring pipeline for one request. ML degradation never
// fails the request; a persistence failure always does.
func (uc *ScoreTransaction) Execute(ctx context.Context, caller dto.Caller, req dto.ScoreTransactionRequest) (dto.ScoreTransactionResponse, error) {
	ctx, span := startSpan(ctx, "ScoreTransaction")
	defer span.End()

	if !caller.Authenticated() {
		span.SetStatus(codes.Error, ErrUnauthenticated.Error())
		return dto.ScoreTransactionResponse{}, ErrUnauthenticated
	}

	input := req.ToInput()
	if err := input.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return dto.ScoreTransactionResponse{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	result := uc.scorer.Score(ctx, input)

	record, err := model.NewTransactionRecord(caller.UserID, input, result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record construction failed")
		if errors.Is(err, model.ErrInvalidTransaction) {
			return dto.ScoreTransactionResponse{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return dto.ScoreTransactionResponse{}, fmt.Errorf("failed to build record: %w", err)
	}
	span.SetAttributes(
		attribute.String("record.id", record.ID().String()),
		attribute.String("risk.action", record.ActionTaken().String()),
		attribute.Float64("risk.final_score", record.FinalRiskScore()),
		attribute.String("risk.ml_status", string(record.MLStatus())),
	)

	if err := uc.repo.Append(ctx, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		return dto.ScoreTransactionResponse{}, fmt.Errorf("failed to save record: %w", err)
	}

	uc.recordMetrics(ctx, record)
	uc.invalidateStats(ctx, caller)

	if evts := record.ClearEvents(); len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, evts...); err != nil {
			uc.logger.Error("failed to publish record events",
				"record_id", record.ID(), "events", len(evts), "error", err)
		}
	}

	return dto.ScoreTransactionResponse{
		Transaction:   dto.FromModel(record),
		MLBreakdown:   record.MLBreakdown(),
		RuleBreakdown: record.RuleBreakdown(),
		MLStatus:      string(record.MLStatus()),
	}, nil
}

func (uc *ScoreTransaction) recordMetrics(ctx context.Context, record *model.TransactionRecord) {
	uc.metrics.decisions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("action", record.ActionTaken().String())))
	uc.metrics.finalScore.Record(ctx, record.FinalRiskScore())
	if status := record.MLStatus(); status != valueobject.MLStatusOK {
		uc.metrics.mlFallbacks.Add(ctx, 1,
			metric.WithAttributes(attribute.String("status", string(status))))
	}
}

func (uc *ScoreTransaction) invalidateStats(ctx context.Context, caller dto.Caller) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, globalStatsScope, ownerStatsScope(caller.UserID)); err != nil {
		uc.logger.Warn("failed to invalidate stats cache", "error", err)
	}
}
