package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/txshield/txshield/internal/application/usecase"

type scoringInstruments struct {
	decisions   metric.Int64Counter
	mlFallbacks metric.Int64Counter
	finalScore  metric.Float64Histogram
}

// newScoringInstruments registers the scoring metrics on the global meter
// provider. It falls back to no-op instruments when registration fails.
func newScoringInstruments() (*scoringInstruments, error) {
	meter := otel.Meter(instrumentationName)

	decisions, err := meter.Int64Counter("txshield.decisions",
		metric.WithDescription("Scored transactions by action taken"))
	if err != nil {
		return noopScoringInstruments(), err
	}
	fallbacks, err := meter.Int64Counter("txshield.ml.fallbacks",
		metric.WithDescription("Scorings that used the neutral ML score, by ML status"))
	if err != nil {
		return noopScoringInstruments(), err
	}
	final, err := meter.Float64Histogram("txshield.final_score",
		metric.WithDescription("Distribution of fused risk scores"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1))
	if err != nil {
		return noopScoringInstruments(), err
	}

	return &scoringInstruments{decisions: decisions, mlFallbacks: fallbacks, finalScore: final}, nil
}

func noopScoringInstruments() *scoringInstruments {
	meter := noop.NewMeterProvider().Meter(instrumentationName)
	decisions, _ := meter.Int64Counter("txshield.decisions")
	fallbacks, _ := meter.Int64Counter("txshield.ml.fallbacks")
	final, _ := meter.Float64Histogram("txshield.final_score")
	return &scoringInstruments{decisions: decisions, mlFallbacks: fallbacks, finalScore: final}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}
