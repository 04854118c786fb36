package service

import (
	"fmt"
	"strings"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/policy"
	"github.com/txshield/txshield/internal/domain/valueobject"
)

// Rule names as they appear in breakdowns.
const (
	RuleAmountTier1       = "amount_tier_1"
	RuleAmountTier2       = "amount_tier_2"
	RuleGeofenceMismatch  = "geofence_mismatch"
	RuleFastChannelAmount = "fast_channel_amount"
	RuleDeviceIntegrity   = "device_integrity"
)

// RuleResult is the rule-based score and the rules that produced it.
type RuleResult struct {
	Score float64
	Hits  []model.RuleHit
}

// Breakdown maps each fired rule to its contribution.
func (r RuleResult) Breakdown() map[string]float64 {
	return model.ScoreResult{RuleHits: r.Hits}.RuleBreakdown()
}

// RuleEvaluator applies the additive heuristics of a policy. It performs no
// I/O beyond the optional IP locator and never fails.
type RuleEvaluator struct {
	rules       policy.Rules
	home        *HomeRegion
	fastMethods map[string]struct{}
	devices     []string
}

// NewRuleEvaluator creates a RuleEvaluator for the given policy.
func NewRuleEvaluator(p policy.Policy, home *HomeRegion) *RuleEvaluator {
	e := &RuleEvaluator{
		rules:       p.Rules,
		home:        home,
		fastMethods: make(map[string]struct{}, len(p.Rules.FastChannelMethods)),
	}
	for _, m := range p.Rules.FastChannelMethods {
		e.fastMethods[strings.ToUpper(strings.TrimSpace(m))] = struct{}{}
	}
	for _, d := range p.Rules.FlaggedDeviceSubstrings {
		if d = strings.ToLower(d); d != "" {
			e.devices = append(e.devices, d)
		}
	}
	return e
}

// Evaluate scores a transaction. The total is clamped to 1.0, not renormalised,
// so the breakdown can sum to more than the score.
func (e *RuleEvaluator) Evaluate(in model.TransactionInput) RuleResult {
	var hits []model.RuleHit
	add := func(rule string, weight float64, reason string) {
		hits = append(hits, model.RuleHit{Rule: rule, Contribution: weight, Reason: reason})
	}

	r := e.rules

	if in.Amount.GreaterThan(r.AmountTier1Threshold.Decimal) {
		add(RuleAmountTier1, r.AmountTier1Weight,
			fmt.Sprintf("amount %s exceeds %s", in.Amount, r.AmountTier1Threshold))
	}
	if in.Amount.GreaterThan(r.AmountTier2Threshold.Decimal) {
		add(RuleAmountTier2, r.AmountTier2Weight,
			fmt.Sprintf("amount %s exceeds %s", in.Amount, r.AmountTier2Threshold))
	}

	if e.home.IsHomeCity(in.Location) && strings.TrimSpace(in.IPAddress) != "" && !e.home.IsHomeIP(in.IPAddress) {
		add(RuleGeofenceMismatch, r.GeofenceWeight,
			fmt.Sprintf("location %q does not match IP %s", in.Location, in.IPAddress))
	}

	if _, fast := e.fastMethods[strings.ToUpper(strings.TrimSpace(in.PaymentMethod))]; fast &&
		in.Amount.GreaterThan(r.FastChannelThreshold.Decimal) {
		add(RuleFastChannelAmount, r.FastChannelWeight,
			fmt.Sprintf("%s payment above %s", in.PaymentMethod, r.FastChannelThreshold))
	}

	device := strings.ToLower(in.DeviceType)
	for _, flagged := range e.devices {
		if strings.Contains(device, flagged) {
			add(RuleDeviceIntegrity, r.DeviceWeight,
				fmt.Sprintf("device type %q is flagged", in.DeviceType))
			break
		}
	}

	var total float64
	for _, h := range hits {
		total += h.Contribution
	}

	return RuleResult{Score: valueobject.Clamp01(total), Hits: hits}
}
