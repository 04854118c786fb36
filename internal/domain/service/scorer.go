package service

import (
	"context"

	"github.com/txshield/txshield/internal/domain/model"
)

// Scorer produces a complete ScoreResult for a transaction. HybridScorer is
// the production implementation; use cases depend only on this interface.
type Scorer interface {
	Score(ctx context.Context, input model.TransactionInput) model.ScoreResult
}
