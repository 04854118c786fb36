package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/port"
	"github.com/txshield/txshield/internal/domain/valueobject"
)

const maxResponseBytes = 1 << 20

var errMalformed = errors.New("malformed scorer response")

var _ port.MLScorer = (*HTTPScorer)(nil)

// HTTPScorer posts transactions to the external scoring service. Each call is
// a single attempt; there is no retry.
type HTTPScorer struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	neutral  float64
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTPScorer creates an HTTPScorer.
func NewHTTPScorer(cfg Config, logger *slog.Logger) *HTTPScorer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPScorer{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		neutral:  valueobject.Clamp01(cfg.NeutralScore),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type predictRequest struct {
	Amount           json.Number `json:"amount"`
	Location         string      `json:"location"`
	DeviceType       string      `json:"deviceType"`
	MerchantCategory string      `json:"merchantCategory"`
	IPAddress        string      `json:"ipAddress"`
	PaymentMethod    string      `json:"paymentMethod,omitempty"`
	TransactionTime  *time.Time  `json:"transactionTime,omitempty"`
}

// predictResponse accepts both the short field names and the risk_-prefixed
// names used by the reference scoring service.
type predictResponse struct {
	Score         *float64       `json:"score"`
	RiskScore     *float64       `json:"risk_score"`
	Breakdown     map[string]any `json:"breakdown"`
	RiskBreakdown map[string]any `json:"risk_breakdown"`
	Prediction    *bool          `json:"fraud_prediction"`
	Engine        string         `json:"engine"`
}

// Assess calls the scorer. Every failure becomes an unavailable assessment.
func (s *HTTPScorer) Assess(ctx context.Context, input model.TransactionInput) valueobject.MLAssessment {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	assessment, err := s.predict(ctx, input)
	if err != nil {
		s.logger.Warn("external ML scorer unavailable", "endpoint", s.endpoint, "error", err)
		return valueobject.MLUnavailable(err.Error())
	}
	return assessment
}

func (s *HTTPScorer) predict(ctx context.Context, input model.TransactionInput) (valueobject.MLAssessment, error) {
	body, err := json.Marshal(predictRequest{
		Amount:           json.Number(input.Amount.String()),
		Location:         input.Location,
		DeviceType:       input.DeviceType,
		MerchantCategory: input.MerchantCategory,
		IPAddress:        input.IPAddress,
		PaymentMethod:    input.PaymentMethod,
		TransactionTime:  input.TransactionTime,
	})
	if err != nil {
		return valueobject.MLAssessment{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return valueobject.MLAssessment{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := s.client.Do(req)
	if err != nil {
		return valueobject.MLAssessment{}, fmt.Errorf("scorer request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return valueobject.MLAssessment{}, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return valueobject.MLAssessment{}, fmt.Errorf("scorer API error (status %d): %s", resp.StatusCode, truncate(respBody, 256))
	}

	var out predictResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return valueobject.MLAssessment{}, fmt.Errorf("%w: %v", errMalformed, err)
	}

	return s.toAssessment(out)
}

func (s *HTTPScorer) toAssessment(out predictResponse) (valueobject.MLAssessment, error) {
	breakdown := out.Breakdown
	if breakdown == nil {
		breakdown = out.RiskBreakdown
	}
	if breakdown == nil {
		breakdown = map[string]any{}
	}
	if out.Engine != "" {
		breakdown["engine"] = out.Engine
	}
	if out.Prediction != nil {
		breakdown["fraud_prediction"] = *out.Prediction
	}

	score := out.Score
	if score == nil {
		score = out.RiskScore
	}
	if score == nil {
		breakdown["note"] = "score absent from response; neutral value used"
		return valueobject.MLSucceeded(s.neutral, breakdown), nil
	}
	if !valueobject.InUnitInterval(*score) {
		return valueobject.MLAssessment{}, fmt.Errorf("%w: score %v outside [0,1]", errMalformed, *score)
	}

	return valueobject.MLSucceeded(*score, breakdown), nil
}

// truncate shortens b to at most n bytes without splitting a UTF-8 sequence.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
