package model

import (
	"errors"
	"fmt"

	"github.com/txshield/txshield/internal/domain/valueobject"
)

// ErrIncompleteScore is returned when a ScoreResult is missing a component
// or carries an out-of-range score.
var ErrIncompleteScore = errors.New("incomplete score result")

// RuleHit records one rule that fired and what it added.
type RuleHit struct {
	Rule         string  `json:"rule"`
	Contribution float64 `json:"contribution"`
	Reason       string  `json:"reason"`
}

// ScoreResult is the output of the scoring pipeline for one transaction.
type ScoreResult struct {
	RuleScore     float64
	MLScore       float64
	FinalScore    float64
	Action        valueobject.Action
	RuleHits      []RuleHit
	ML            valueobject.MLAssessment
	PolicyVersion string
}

// RuleBreakdown maps each fired rule to its contribution.
func (r ScoreResult) RuleBreakdown() map[string]float64 {
	out := make(map[string]float64, len(r.RuleHits))
	for _, h := range r.RuleHits {
		out[h.Rule] = h.Contribution
	}
	return out
}

// FiredRules lists the names of the rules that fired, in evaluation order.
func (r ScoreResult) FiredRules() []string {
	out := make([]string, 0, len(r.RuleHits))
	for _, h := range r.RuleHits {
		out = append(out, h.Rule)
	}
	return out
}

// Complete verifies every score is populated and in range.
func (r ScoreResult) Complete() error {
	scores := map[string]float64{"rule": r.RuleScore, "ml": r.MLScore, "final": r.FinalScore}
	for name, s := range scores {
		if !valueobject.InUnitInterval(s) {
			return fmt.Errorf("%w: %s score %v outside [0,1]", ErrIncompleteScore, name, s)
		}
	}
	if r.Action.IsZero() {
		return fmt.Errorf("%w: action not decided", ErrIncompleteScore)
	}
	return nil
}
