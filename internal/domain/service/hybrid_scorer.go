package service

import (
	"context"
	"log/slog"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/policy"
	"github.com/txshield/txshield/internal/domain/port"
)

// HybridScorer runs the rule evaluator, asks the ML scorer, and fuses both.
// An unavailable or unconfigured ML scorer is replaced by the policy fallback
// score; the assessment itself is kept on the result for the breakdown.
type HybridScorer struct {
	rules    *RuleEvaluator
	ml       port.MLScorer
	decision DecisionPolicy
	fallback float64
	version  string
	logger   *slog.Logger
}

// NewHybridScorer wires the scorer for policy p. locator may be nil.
func NewHybridScorer(p policy.Policy, ml port.MLScorer, locator port.IPLocator, logger *slog.Logger) *HybridScorer {
	return &HybridScorer{
		rules:    NewRuleEvaluator(p, NewHomeRegion(p.Geofence, locator)),
		ml:       ml,
		decision: NewDecisionPolicy(p),
		fallback: p.ML.FallbackScore,
		version:  p.Version,
		logger:   logger,
	}
}

// Score evaluates a transaction. It always returns a complete result.
func (h *HybridScorer) Score(ctx context.Context, input model.TransactionInput) model.ScoreResult {
	rules := h.rules.Evaluate(input)

	assessment := h.ml.Assess(ctx, input)
	mlScore := assessment.ScoreOr(h.fallback)
	if !assessment.Available() {
		h.logger.Debug("using fallback ML score",
			"status", assessment.Status(),
			"fallback", mlScore,
			"detail", assessment.Detail(),
		)
	}

	final, action := h.decision.Fuse(rules.Score, mlScore)

	return model.ScoreResult{
		RuleScore:     rules.Score,
		MLScore:       mlScore,
		FinalScore:    final,
		Action:        action,
		RuleHits:      rules.Hits,
		ML:            assessment,
		PolicyVersion: h.version,
	}
}
