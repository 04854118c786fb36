// Package policy holds the versioned, injectable risk policy: rule weights,
// geofence data, fusion weights, decision thresholds and the ML fallback.
package policy

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Amount is a currency-unit threshold. It decodes from YAML numbers or strings
// without passing through float64.
type Amount struct {
	decimal.Decimal
}

// NewAmount creates an Amount from a whole number of currency units.
func NewAmount(units int64) Amount {
	return Amount{decimal.NewFromInt(units)}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q: %w", node.Line, node.Value, err)
	}
	a.Decimal = d
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (a Amount) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// Rules carries the weight and trigger of every heuristic.
type Rules struct {
	AmountTier1Threshold Amount  `yaml:"amount_tier1_threshold"`
	AmountTier1Weight    float64 `yaml:"amount_tier1_weight"`
	AmountTier2Threshold Amount  `yaml:"amount_tier2_threshold"`
	AmountTier2Weight    float64 `yaml:"amount_tier2_weight"`

	GeofenceWeight float64 `yaml:"geofence_weight"`

	FastChannelMethods   []string `yaml:"fast_channel_methods"`
	FastChannelThreshold Amount   `yaml:"fast_channel_threshold"`
	FastChannelWeight    float64  `yaml:"fast_channel_weight"`

	FlaggedDeviceSubstrings []string `yaml:"flagged_device_substrings"`
	DeviceWeight            float64  `yaml:"device_weight"`
}

// Geofence describes the home region.
type Geofence struct {
	HomeCities     []string `yaml:"home_cities"`
	HomeIPPrefixes []string `yaml:"home_ip_prefixes"`

	// HomeCountryCodes is consulted only when an IP locator is configured.
	HomeCountryCodes []string `yaml:"home_country_codes"`
}

// Fusion weights. They must sum to 1.
type Fusion struct {
	RuleWeight float64 `yaml:"rule_weight"`
	MLWeight   float64 `yaml:"ml_weight"`
}

// Thresholds are strict lower bounds: a final score must exceed them.
type Thresholds struct {
	OTP   float64 `yaml:"otp"`
	Block float64 `yaml:"block"`
}

// ML configures degradation of the external scorer.
type ML struct {
	FallbackScore float64 `yaml:"fallback_score"`
}

// Policy is the complete risk configuration.
type Policy struct {
	Version    string     `yaml:"version"`
	Rules      Rules      `yaml:"rules"`
	Geofence   Geofence   `yaml:"geofence"`
	Fusion     Fusion     `yaml:"fusion"`
	Thresholds Thresholds `yaml:"thresholds"`
	ML         ML         `yaml:"ml"`
}

// Default returns the reference policy.
func Default() Policy {
	return Policy{
		Version: "2024.1",
		Rules: Rules{
			AmountTier1Threshold:    NewAmount(50000),
			AmountTier1Weight:       0.4,
			AmountTier2Threshold:    NewAmount(200000),
			AmountTier2Weight:       0.2,
			GeofenceWeight:          0.5,
			FastChannelMethods:      []string{"UPI"},
			FastChannelThreshold:    NewAmount(20000),
			FastChannelWeight:       0.3,
			FlaggedDeviceSubstrings: []string{"Emulator"},
			DeviceWeight:            0.6,
		},
		Geofence: Geofence{
			HomeCities: []string{
				"Chennai", "Mumbai", "Delhi", "Bangalore",
				"Hyderabad", "Kolkata", "Pune", "Ahmedabad",
			},
			HomeIPPrefixes:   []string{"49.", "103.", "106.", "117.", "122.", "157.", "182."},
			HomeCountryCodes: []string{"IN"},
		},
		Fusion:     Fusion{RuleWeight: 0.6, MLWeight: 0.4},
		Thresholds: Thresholds{OTP: 0.4, Block: 0.7},
		ML:         ML{FallbackScore: 0.5},
	}
}

// Load overlays the YAML file at path on Default and validates the result.
// Keys missing from the file keep their default; lists present in the file
// replace the default list.
func Load(path string) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(raw)
}

// Parse overlays YAML bytes on Default and validates the result.
func Parse(raw []byte) (Policy, error) {
	p := Default()
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy for internal consistency.
func (p Policy) Validate() error {
	var errs []error

	if p.Version == "" {
		errs = append(errs, errors.New("version is required"))
	}

	weights := map[string]float64{
		"rules.amount_tier1_weight": p.Rules.AmountTier1Weight,
		"rules.amount_tier2_weight": p.Rules.AmountTier2Weight,
		"rules.geofence_weight":     p.Rules.GeofenceWeight,
		"rules.fast_channel_weight": p.Rules.FastChannelWeight,
		"rules.device_weight":       p.Rules.DeviceWeight,
		"fusion.rule_weight":        p.Fusion.RuleWeight,
		"fusion.ml_weight":          p.Fusion.MLWeight,
		"ml.fallback_score":         p.ML.FallbackScore,
	}
	for name, w := range weights {
		if math.IsNaN(w) || w < 0 || w > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, w))
		}
	}

	if math.Abs(p.Fusion.RuleWeight+p.Fusion.MLWeight-1) > 1e-9 {
		errs = append(errs, fmt.Errorf("fusion weights must sum to 1, got %v", p.Fusion.RuleWeight+p.Fusion.MLWeight))
	}

	if p.Thresholds.OTP < 0 || p.Thresholds.OTP >= p.Thresholds.Block || p.Thresholds.Block > 1 {
		errs = append(errs, fmt.Errorf("thresholds must satisfy 0 <= otp < block <= 1, got otp=%v block=%v",
			p.Thresholds.OTP, p.Thresholds.Block))
	}

	if p.Rules.AmountTier2Threshold.LessThan(p.Rules.AmountTier1Threshold.Decimal) {
		errs = append(errs, errors.New("rules.amount_tier2_threshold must not be below amount_tier1_threshold"))
	}
	if p.Rules.AmountTier1Threshold.IsNegative() || p.Rules.FastChannelThreshold.IsNegative() {
		errs = append(errs, errors.New("rule amount thresholds must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid policy %q: %w", p.Version, errors.Join(errs...))
	}
	return nil
}
