package port

import (
	"context"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/valueobject"
)

// MLScorer obtains a risk score from the external ML service. Implementations
// never return an error: every failure is folded into the assessment.
type MLScorer interface {
	Assess(ctx context.Context, input model.TransactionInput) valueobject.MLAssessment
}

// IPLocator resolves an IP address to an ISO 3166-1 alpha-2 country code.
type IPLocator interface {
	CountryCode(ip string) (string, error)
}
