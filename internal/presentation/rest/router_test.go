package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/txshield/txshield/internal/application/dto"
	"github.com/txshield/txshield/internal/application/usecase"
	"github.com/txshield/txshield/internal/presentation/rest"
	"github.com/txshield/txshield/pkg/auth"
	"github.com/txshield/txshield/pkg/observability"
	"github.com/txshield/txshield/pkg/testutil"
)

type stubScore struct {
	gotCaller dto.Caller
	gotReq    dto.ScoreTransactionRequest
	err       error
}

func (s *stubScore) Execute(_ context.Context, caller dto.Caller, req dto.ScoreTransactionRequest) (dto.ScoreTransactionResponse, error) {
	s.gotCaller, s.gotReq = caller, req
	if s.err != nil {
		return dto.ScoreTransactionResponse{}, s.err
	}
	return dto.ScoreTransactionResponse{
		Transaction: dto.TransactionResponse{
			ID:          testutil.TestRecordID,
			UserID:      caller.UserID,
			Amount:      req.Amount.String(),
			ActionTaken: "Approve",
		},
		MLStatus:      "ok",
		MLBreakdown:   map[string]any{},
		RuleBreakdown: map[string]float64{},
	}, nil
}

type stubList struct {
	gotCaller dto.Caller
	gotReq    dto.ListTransactionsRequest
}

func (s *stubList) Execute(_ context.Context, caller dto.Caller, req dto.ListTransactionsRequest) (dto.ListTransactionsResponse, error) {
	s.gotCaller, s.gotReq = caller, req
	return dto.ListTransactionsResponse{Transactions: []dto.TransactionResponse{}, Limit: 50}, nil
}

type stubStats struct{ err error }

func (s *stubStats) Execute(context.Context, dto.Caller) (dto.FraudStatsResponse, error) {
	if s.err != nil {
		return dto.FraudStatsResponse{}, s.err
	}
	return dto.FraudStatsResponse{TotalTransactions: 4, FraudulentTransactions: 1, FraudRate: "25.00"}, nil
}

type fixture struct {
	handler http.Handler
	jwt     *auth.JWTService
	score   *stubScore
	list    *stubList
	stats   *stubStats
	ready   error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "txshield"})
	require.NoError(t, err)

	f := &fixture{jwt: jwtSvc, score: &stubScore{}, list: &stubList{}, stats: &stubStats{}}
	logger := observability.NopLogger()
	f.handler = rest.NewRouter(rest.RouterConfig{
		Logger:       logger,
		JWT:          jwtSvc,
		Limiter:      rest.NewRateLimiter(1000, 1000),
		Transactions: rest.NewTransactionHandler(f.score, f.list, f.stats, logger),
		Health: rest.NewHealthHandler(logger, map[string]rest.CheckFunc{
			"database": func(context.Context) error { return f.ready },
		}),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
	})
	return f
}

func (f *fixture) token(t *testing.T, userID uuid.UUID, roles ...string) string {
	t.Helper()
	tok, err := f.jwt.GenerateToken(userID, roles)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"amount":1000,"location":"Chennai","deviceType":"Mobile","merchantCategory":"Groceries","ipAddress":"49.36.12.1","paymentMethod":"UPI"}`

func TestScoreEndpoint(t *testing.T) {
	t.Run("creates a record for an authenticated caller", func(t *testing.T) {
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(validBody))

		rec := f.do(req, f.token(t, testutil.TestUserID1, auth.RoleUser))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body, "transaction")
		assert.Contains(t, body, "mlBreakdown")
		assert.Contains(t, body, "ruleBreakdown")
		assert.Equal(t, "ok", body["mlStatus"])
		assert.Equal(t, testutil.TestUserID1, f.score.gotCaller.UserID)
		assert.False(t, f.score.gotCaller.Privileged)
		assert.Equal(t, "1000", f.score.gotReq.Amount.String())
		assert.Equal(t, "UPI", f.score.gotReq.PaymentMethod)
	})

	tests := []struct {
		name     string
		body     string
		token    bool
		err      error
		wantCode int
	}{
		{"missing token", validBody, false, nil, http.StatusUnauthorized},
		{"malformed json", `{"amount":`, true, nil, http.StatusBadRequest},
		{"empty body", ``, true, nil, http.StatusBadRequest},
		{"invalid input", validBody, true, usecase.ErrInvalidInput, http.StatusBadRequest},
		{"persistence failure", validBody, true, errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.score.err = tt.err
			tok := ""
			if tt.token {
				tok = f.token(t, testutil.TestUserID1)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(tt.body))

			rec := f.do(req, tok)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	t.Run("does not leak internal errors", func(t *testing.T) {
		f := newFixture(t)
		f.score.err = errors.New("pq: connection refused at 10.0.0.5")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(validBody))

		rec := f.do(req, f.token(t, testutil.TestUserID1))

		assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		f := newFixture(t)
		other, err := auth.NewJWTService(auth.JWTConfig{Secret: "other", Issuer: "txshield"})
		require.NoError(t, err)
		tok, err := other.GenerateToken(testutil.TestUserID1, nil)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(validBody))
		rec := f.do(req, tok)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestListEndpoint(t *testing.T) {
	t.Run("passes paging and role through", func(t *testing.T) {
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?limit=10&offset=20&fraudOnly=true", nil)

		rec := f.do(req, f.token(t, testutil.TestAdminID, auth.RoleAdmin))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, dto.ListTransactionsRequest{Limit: 10, Offset: 20, FraudOnly: true}, f.list.gotReq)
		assert.True(t, f.list.gotCaller.Privileged)
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		f := newFixture(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?limit=ten", nil)

		rec := f.do(req, f.token(t, testutil.TestUserID1))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/stats", nil)

	rec := f.do(req, f.token(t, testutil.TestUserID1))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalTransactions":4,"fraudulentTransactions":1,"fraudRate":"25.00"}`, rec.Body.String())
}

func TestPublicEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	f.ready = errors.New("connection refused")
	rec = f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"unavailable"`)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# metrics")
}
