package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/txshield/txshield/internal/application/dto"
	"github.com/txshield/txshield/internal/domain/port"
)

// DefaultStatsTTL is how long cached statistics stay valid.
const DefaultStatsTTL = 30 * time.Second

const globalStatsScope = "all"

func ownerStatsScope(id uuid.UUID) string {
	return "owner:" + id.String()
}

// GetFraudStats computes total and fraudulent counts and the fraud rate.
type GetFraudStats struct {
	repo   port.TransactionRepository
	cache  port.StatsCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewGetFraudStats creates a new GetFraudStats use case. cache may be nil;
// a non-positive ttl uses DefaultStatsTTL.
func NewGetFraudStats(repo port.TransactionRepository, cache port.StatsCache, ttl time.Duration, logger *slog.Logger) *GetFraudStats {
	if ttl <= 0 {
		ttl = DefaultStatsTTL
	}
	return &GetFraudStats{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Execute returns statistics over every record for privileged callers and over
// the caller's own records otherwise.
func (uc *GetFraudStats) Execute(ctx context.Context, caller dto.Caller) (dto.FraudStatsResponse, error) {
	ctx, span := startSpan(ctx, "GetFraudStats")
	defer span.End()

	if !caller.Authenticated() {
		return dto.FraudStatsResponse{}, ErrUnauthenticated
	}

	scope := globalStatsScope
	if !caller.Privileged {
		scope = ownerStatsScope(caller.UserID)
	}

	stats, err := uc.load(ctx, caller, scope)
	if err != nil {
		return dto.FraudStatsResponse{}, err
	}

	return dto.FraudStatsResponse{
		TotalTransactions:      stats.Total,
		FraudulentTransactions: stats.Fraudulent,
		FraudRate:              FraudRate(stats.Total, stats.Fraudulent),
	}, nil
}

// load serves the scope from cache or counts it. A fresh count is cached under
// the generation observed before counting; when the cache read failed the
// generation is unknown and nothing is written.
func (uc *GetFraudStats) load(ctx context.Context, caller dto.Caller, scope string) (port.FraudStats, error) {
	var (
		gen       int64
		cacheable = uc.cache != nil
	)
	if cacheable {
		cached, g, ok, err := uc.cache.Get(ctx, scope)
		switch {
		case err != nil:
			uc.logger.Warn("stats cache read failed", "scope", scope, "error", err)
			cacheable = false
		case ok:
			return cached, nil
		default:
			gen = g
		}
	}

	stats, err := uc.repo.Stats(ctx, scopeFilter(caller))
	if err != nil {
		return port.FraudStats{}, fmt.Errorf("failed to count records: %w", err)
	}

	if cacheable {
		if err := uc.cache.Set(ctx, scope, gen, stats, uc.ttl); err != nil {
			uc.logger.Warn("stats cache write failed", "scope", scope, "error", err)
		}
	}
	return stats, nil
}

// FraudRate returns fraudulent/total*100 rounded to two decimals, "0.00" when
// total is zero.
func FraudRate(total, fraudulent int64) string {
	if total <= 0 {
		return decimal.Zero.StringFixed(2)
	}
	return decimal.NewFromInt(fraudulent).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(total)).
		StringFixed(2)
}
