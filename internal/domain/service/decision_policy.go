package service

import (
	"github.com/txshield/txshield/internal/domain/policy"
	"github.com/txshield/txshield/internal/domain/valueobject"
)

// DecisionPolicy fuses rule and ML scores and classifies the result.
// It is stateless; the same inputs always give the same decision.
type DecisionPolicy struct {
	fusion     policy.Fusion
	thresholds policy.Thresholds
}

// NewDecisionPolicy creates a DecisionPolicy from the policy weights and thresholds.
func NewDecisionPolicy(p policy.Policy) DecisionPolicy {
	return DecisionPolicy{fusion: p.Fusion, thresholds: p.Thresholds}
}

// Fuse returns MLWeight*ml + RuleWeight*rule, clamped to [0,1], and its action.
func (d DecisionPolicy) Fuse(ruleScore, mlScore float64) (float64, valueobject.Action) {
	final := valueobject.Clamp01(
		d.fusion.MLWeight*valueobject.Clamp01(mlScore) +
			d.fusion.RuleWeight*valueobject.Clamp01(ruleScore),
	)
	return final, d.Classify(final)
}

// Classify maps a final score to an action. Both thresholds are exclusive:
// a score equal to a threshold falls into the lower band.
func (d DecisionPolicy) Classify(finalScore float64) valueobject.Action {
	switch {
	case finalScore > d.thresholds.Block:
		return valueobject.ActionBlock
	case finalScore > d.thresholds.OTP:
		return valueobject.ActionOTP
	default:
		return valueobject.ActionApprove
	}
}
