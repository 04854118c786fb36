package valueobject

// MLStatus describes how an ML score was obtained.
type MLStatus string

const (
	MLStatusOK           MLStatus = "ok"
	MLStatusUnavailable  MLStatus = "unavailable"
	MLStatusUnconfigured MLStatus = "unconfigured"
)

// MLAssessment is the outcome of asking the external scorer. Only a
// succeeded assessment carries a real score; the others are collapsed to the
// policy fallback by ScoreOr at the fusion boundary.
type MLAssessment struct {
	status    MLStatus
	score     float64
	breakdown map[string]any
	detail    string
}

// MLSucceeded wraps a score returned by the external scorer.
func MLSucceeded(score float64, breakdown map[string]any) MLAssessment {
	return MLAssessment{
		status:    MLStatusOK,
		score:     Clamp01(score),
		breakdown: copyBreakdown(breakdown),
	}
}

// MLUnavailable records a failed call. detail is the raw error text.
func MLUnavailable(detail string) MLAssessment {
	return MLAssessment{status: MLStatusUnavailable, detail: detail}
}

// MLUnconfigured records that no scorer endpoint exists.
func MLUnconfigured() MLAssessment {
	return MLAssessment{status: MLStatusUnconfigured}
}

// Status returns how the assessment was obtained.
func (a MLAssessment) Status() MLStatus {
	if a.status == "" {
		return MLStatusUnconfigured
	}
	return a.status
}

// Available reports whether the external scorer produced the score.
func (a MLAssessment) Available() bool {
	return a.status == MLStatusOK
}

// Detail is the raw failure message for an unavailable assessment.
func (a MLAssessment) Detail() string {
	return a.detail
}

// ScoreOr returns the scorer's value, or fallback when there is none.
func (a MLAssessment) ScoreOr(fallback float64) float64 {
	if a.Available() {
		return a.score
	}
	return Clamp01(fallback)
}

// Breakdown returns the explanation shown to the caller.
func (a MLAssessment) Breakdown() map[string]any {
	switch a.Status() {
	case MLStatusOK:
		return copyBreakdown(a.breakdown)
	case MLStatusUnavailable:
		return map[string]any{
			"error":         "external analysis unavailable",
			"error_details": a.detail,
		}
	default:
		return map[string]any{"status": "service not configured"}
	}
}

func copyBreakdown(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
