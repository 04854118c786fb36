package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/txshield/txshield/internal/application/dto"
	"github.com/txshield/txshield/internal/application/usecase"
	"github.com/txshield/txshield/pkg/auth"
	"github.com/txshield/txshield/pkg/observability"
	"github.com/txshield/txshield/pkg/testutil"
)

// --- Stub use cases ---

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
			ID:             testutil.TestRecordID,
			UserID:         caller.UserID,
			Amount:         req.Amount.String(),
			ActionTaken:    "Block",
			IsFraud:        true,
			FinalRiskScore: 0.8,
			CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		MLStatus:      "unavailable",
		MLBreakdown:   map[string]any{"error": "external analysis unavailable"},
		RuleBreakdown: map[string]float64{"device_integrity": 0.6},
	}, nil
}

type stubList struct {
	gotReq dto.ListTransactionsRequest
	err    error
}

func (s *stubList) Execute(_ context.Context, _ dto.Caller, req dto.ListTransactionsRequest) (dto.ListTransactionsResponse, error) {
	s.gotReq = req
	if s.err != nil {
		return dto.ListTransactionsResponse{}, s.err
	}
	return dto.ListTransactionsResponse{
		Transactions: []dto.TransactionResponse{{ID: testutil.TestRecordID}},
		Limit:        usecase.DefaultListLimit,
	}, nil
}

type stubStats struct{ err error }

func (s *stubStats) Execute(context.Context, dto.Caller) (dto.FraudStatsResponse, error) {
	if s.err != nil {
		return dto.FraudStatsResponse{}, s.err
	}
	return dto.FraudStatsResponse{TotalTransactions: 8, FraudulentTransactions: 5, FraudRate: "62.50"}, nil
}

// --- Helpers ---

func contextWithClaims(roles ...string) context.Context {
	claims := &auth.Claims{UserID: testutil.TestUserID1, Roles: roles}
	return auth.ContextWithClaims(context.Background(), claims)
}

func buildTestHandler() (*RiskServiceHandler, *stubScore, *stubList, *stubStats) {
	score, list, stats := &stubScore{}, &stubList{}, &stubStats{}
	return NewRiskServiceHandler(score, list, stats, observability.NopLogger()), score, list, stats
}

func requireGRPCCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "expected gRPC status error, got %v", err)
	assert.Equal(t, want, st.Code(), "message: %s", st.Message())
}

func validRequest() *ScoreTransactionRequest {
	return &ScoreTransactionRequest{
		Amount:           "250000.50",
		Location:         "Chennai",
		DeviceType:       "Emulator",
		MerchantCategory: "Electronics",
		IPAddress:        "8.8.8.8",
		PaymentMethod:    "UPI",
		TransactionTime:  "2024-01-02T03:04:05Z",
	}
}

// --- Tests ---

func TestScoreTransaction(t *testing.T) {
	t.Run("missing claims returns Unauthenticated", func(t *testing.T) {
		h, _, _, _ := buildTestHandler()
		_, err := h.ScoreTransaction(context.Background(), validRequest())
		requireGRPCCode(t, err, codes.Unauthenticated)
	})

	t.Run("nil request returns InvalidArgument", func(t *testing.T) {
		h, _, _, _ := buildTestHandler()
		_, err := h.ScoreTransaction(contextWithClaims(), nil)
		requireGRPCCode(t, err, codes.InvalidArgument)
	})

	t.Run("invalid amount returns InvalidArgument", func(t *testing.T) {
		h, _, _, _ := buildTestHandler()
		req := validRequest()
		req.Amount = "not-a-number"
		_, err := h.ScoreTransaction(contextWithClaims(), req)
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "invalid amount")
	})

	t.Run("invalid transaction_time returns InvalidArgument", func(t *testing.T) {
		h, _, _, _ := buildTestHandler()
		req := validRequest()
		req.TransactionTime = "yesterday"
		_, err := h.ScoreTransaction(contextWithClaims(), req)
		requireGRPCCode(t, err, codes.InvalidArgument)
		assert.Contains(t, err.Error(), "invalid transaction_time")
	})

	t.Run("happy path returns the record", func(t *testing.T) {
		h, score, _, _ := buildTestHandler()
		resp, err := h.ScoreTransaction(contextWithClaims(auth.RoleUser), validRequest())

		require.NoError(t, err)
		require.NotNil(t, resp.Transaction)
		assert.Equal(t, testutil.TestRecordID.String(), resp.Transaction.ID)
		assert.Equal(t, "Block", resp.Transaction.ActionTaken)
		assert.True(t, resp.Transaction.IsFraud)
		assert.Equal(t, "2024-01-02T03:04:05Z", resp.Transaction.CreatedAt)
		assert.Equal(t, "unavailable", resp.MLStatus)
		assert.Equal(t, 0.6, resp.RuleBreakdown["device_integrity"])

		assert.Equal(t, "250000.5", score.gotReq.Amount.String())
		require.NotNil(t, score.gotReq.TransactionTime)
		assert.Equal(t, 2024, score.gotReq.TransactionTime.Year())
		assert.Equal(t, testutil.TestUserID1, score.gotCaller.UserID)
	})

	errorCases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"validation error", fmt.Errorf("%w: location is required", usecase.ErrInvalidInput), codes.InvalidArgument},
		{"no owner", usecase.ErrUnauthenticated, codes.Unauthenticated},
		{"persistence failure", errors.New("db error"), codes.Internal},
	}
	for _, tc := range errorCases {
		t.Run(tc.name+" maps to "+tc.want.String(), func(t *testing.T) {
			h, score, _, _ := buildTestHandler()
			score.err = tc.err
			_, err := h.ScoreTransaction(contextWithClaims(), validRequest())
			requireGRPCCode(t, err, tc.want)
		})
	}
}

func TestListTransactions(t *testing.T) {
	t.Run("nil request uses defaults", func(t *testing.T) {
		h, _, list, _ := buildTestHandler()
		resp, err := h.ListTransactions(contextWithClaims(), nil)

		require.NoError(t, err)
		assert.Equal(t, dto.ListTransactionsRequest{}, list.gotReq)
		require.Len(t, resp.Transactions, 1)
		assert.Equal(t, int32(usecase.DefaultListLimit), resp.Limit)
	})

	t.Run("forwards paging", func(t *testing.T) {
		h, _, list, _ := buildTestHandler()
		_, err := h.ListTransactions(contextWithClaims(auth.RoleAdmin), &ListTransactionsRequest{Limit: 5, Offset: 10, FraudOnly: true})

		require.NoError(t, err)
		assert.Equal(t, dto.ListTransactionsRequest{Limit: 5, Offset: 10, FraudOnly: true}, list.gotReq)
	})

	t.Run("repository failure returns Internal", func(t *testing.T) {
		h, _, list, _ := buildTestHandler()
		list.err = errors.New("db error")
		_, err := h.ListTransactions(contextWithClaims(), &ListTransactionsRequest{})
		requireGRPCCode(t, err, codes.Internal)
	})
}

func TestGetFraudStats(t *testing.T) {
	t.Run("returns statistics", func(t *testing.T) {
		h, _, _, _ := buildTestHandler()
		resp, err := h.GetFraudStats(contextWithClaims(), &GetFraudStatsRequest{})

		require.NoError(t, err)
		assert.Equal(t, &GetFraudStatsResponse{TotalTransactions: 8, FraudulentTransactions: 5, FraudRate: "62.50"}, resp)
	})

	t.Run("missing claims returns Unauthenticated", func(t *testing.T) {
		h, _, _, _ := buildTestHandler()
		_, err := h.GetFraudStats(context.Background(), &GetFraudStatsRequest{})
		requireGRPCCode(t, err, codes.Unauthenticated)
	})

	t.Run("caller without an owner id is rejected by the use case", func(t *testing.T) {
		h, _, _, stats := buildTestHandler()
		stats.err = usecase.ErrUnauthenticated
		ctx := auth.ContextWithClaims(context.Background(), &auth.Claims{UserID: uuid.Nil})
		_, err := h.GetFraudStats(ctx, &GetFraudStatsRequest{})
		requireGRPCCode(t, err, codes.Unauthenticated)
	})
}
