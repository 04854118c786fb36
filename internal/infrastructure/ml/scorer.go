package ml

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/port"
	"github.com/txshield/txshield/internal/domain/valueobject"
)

// DefaultTimeout bounds a single scoring call.
const DefaultTimeout = 4 * time.Second

// Config configures the external scorer client.
type Config struct {
	// Endpoint is the full URL of the predict operation. Empty disables the scorer.
	Endpoint string
	APIKey   string
	Timeout  time.Duration

	// NeutralScore is used when a 2xx response carries no score.
	NeutralScore float64
}

// NewScorer returns an HTTPScorer, or an UnconfiguredScorer when no endpoint is set.
func NewScorer(cfg Config, logger *slog.Logger) port.MLScorer {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		logger.Info("ML scorer endpoint not configured; fallback score will be used")
		return UnconfiguredScorer{}
	}
	return NewHTTPScorer(cfg, logger)
}

// UnconfiguredScorer never touches the network.
type UnconfiguredScorer struct{}

var _ port.MLScorer = UnconfiguredScorer{}

// Assess always reports the scorer as unconfigured.
func (UnconfiguredScorer) Assess(context.Context, model.TransactionInput) valueobject.MLAssessment {
	return valueobject.MLUnconfigured()
}
