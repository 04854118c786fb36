package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/txshield/txshield/internal/application/dto"
	"github.com/txshield/txshield/internal/application/usecase"
	"github.com/txshield/txshield/pkg/auth"
)

// ScoreUseCase scores and stores one transaction.
type ScoreUseCase interface {
	Execute(ctx context.Context, caller dto.Caller, req dto.ScoreTransactionRequest) (dto.ScoreTransactionResponse, error)
}

// ListUseCase pages through visible records.
type ListUseCase interface {
	Execute(ctx context.Context, caller dto.Caller, req dto.ListTransactionsRequest) (dto.ListTransactionsResponse, error)
}

// StatsUseCase computes fraud statistics.
type StatsUseCase interface {
	Execute(ctx context.Context, caller dto.Caller) (dto.FraudStatsResponse, error)
}

// Compile-time assertion that RiskServiceHandler implements RiskServiceServer.
var _ RiskServiceServer = (*RiskServiceHandler)(nil)

// RiskServiceHandler implements the gRPC RiskServiceServer interface.
type RiskServiceHandler struct {
	UnimplementedRiskServiceServer
	score  ScoreUseCase
	list   ListUseCase
	stats  StatsUseCase
	logger *slog.Logger
}

// NewRiskServiceHandler creates a new gRPC handler.
func NewRiskServiceHandler(score ScoreUseCase, list ListUseCase, stats StatsUseCase, logger *slog.Logger) *RiskServiceHandler {
	return &RiskServiceHandler{score: score, list: list, stats: stats, logger: logger}
}

// Proto-aligned request/response message types.

// ScoreTransactionRequest represents the proto ScoreTransactionRequest message.
type ScoreTransactionRequest struct {
	Amount           string `json:"amount"`
	Location         string `json:"location"`
	DeviceType       string `json:"device_type"`
	MerchantCategory string `json:"merchant_category"`
	IPAddress        string `json:"ip_address"`
	PaymentMethod    string `json:"payment_method,omitempty"`
	TransactionTime  string `json:"transaction_time,omitempty"`
}

// TransactionRecordMsg represents the proto TransactionRecord message.
type TransactionRecordMsg struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	Amount           string  `json:"amount"`
	Location         string  `json:"location"`
	DeviceType       string  `json:"device_type"`
	MerchantCategory string  `json:"merchant_category"`
	IPAddress        string  `json:"ip_address"`
	PaymentMethod    string  `json:"payment_method,omitempty"`
	TransactionTime  string  `json:"transaction_time,omitempty"`
	RuleRiskScore    float64 `json:"rule_risk_score"`
	MLRiskScore      float64 `json:"ml_risk_score"`
	FinalRiskScore   float64 `json:"final_risk_score"`
	IsFraud          bool    `json:"is_fraud"`
	ActionTaken      string  `json:"action_taken"`
	MLStatus         string  `json:"ml_status"`
	PolicyVersion    string  `json:"policy_version"`
	CreatedAt        string  `json:"created_at"`
}

// ScoreTransactionResponse represents the proto ScoreTransactionResponse message.
type ScoreTransactionResponse struct {
	Transaction   *TransactionRecordMsg `json:"transaction"`
	MLBreakdown   map[string]any        `json:"ml_breakdown"`
	RuleBreakdown map[string]float64    `json:"rule_breakdown"`
	MLStatus      string                `json:"ml_status"`
}

// ListTransactionsRequest represents the proto ListTransactionsRequest message.
type ListTransactionsRequest struct {
	Limit     int32 `json:"limit"`
	Offset    int32 `json:"offset"`
	FraudOnly bool  `json:"fraud_only"`
}

// ListTransactionsResponse represents the proto ListTransactionsResponse message.
type ListTransactionsResponse struct {
	Transactions []*TransactionRecordMsg `json:"transactions"`
	Limit        int32                   `json:"limit"`
	Offset       int32                   `json:"offset"`
}

// GetFraudStatsRequest represents the proto GetFraudStatsRequest message.
type GetFraudStatsRequest struct{}

// GetFraudStatsResponse represents the proto GetFraudStatsResponse message.
type GetFraudStatsResponse struct {
	TotalTransactions      int64  `json:"total_transactions"`
	FraudulentTransactions int64  `json:"fraudulent_transactions"`
	FraudRate              string `json:"fraud_rate"`
}

// ScoreTransaction handles a scoring request.
func (h *RiskServiceHandler) ScoreTransaction(ctx context.Context, req *ScoreTransactionRequest) (*ScoreTransactionResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid amount: %v", err)
	}
	in := dto.ScoreTransactionRequest{
		Amount:           amount,
		Location:         req.Location,
		DeviceType:       req.DeviceType,
		MerchantCategory: req.MerchantCategory,
		IPAddress:        req.IPAddress,
		PaymentMethod:    req.PaymentMethod,
	}
	if req.TransactionTime != "" {
		ts, err := time.Parse(time.RFC3339, req.TransactionTime)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid transaction_time: %v", err)
		}
		in.TransactionTime = &ts
	}

	result, err := h.score.Execute(ctx, caller, in)
	if err != nil {
		return nil, h.toStatus("ScoreTransaction", err)
	}

	return &ScoreTransactionResponse{
		Transaction:   toRecordMsg(result.Transaction),
		MLBreakdown:   result.MLBreakdown,
		RuleBreakdown: result.RuleBreakdown,
		MLStatus:      result.MLStatus,
	}, nil
}

// ListTransactions handles a list request.
func (h *RiskServiceHandler) ListTransactions(ctx context.Context, req *ListTransactionsRequest) (*ListTransactionsResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &ListTransactionsRequest{}
	}

	result, err := h.list.Execute(ctx, caller, dto.ListTransactionsRequest{
		Limit:     int(req.Limit),
		Offset:    int(req.Offset),
		FraudOnly: req.FraudOnly,
	})
	if err != nil {
		return nil, h.toStatus("ListTransactions", err)
	}

	out := make([]*TransactionRecordMsg, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		out = append(out, toRecordMsg(tx))
	}
	return &ListTransactionsResponse{
		Transactions: out,
		Limit:        int32(result.Limit),
		Offset:       int32(result.Offset),
	}, nil
}

// GetFraudStats handles a statistics request.
func (h *RiskServiceHandler) GetFraudStats(ctx context.Context, _ *GetFraudStatsRequest) (*GetFraudStatsResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := h.stats.Execute(ctx, caller)
	if err != nil {
		return nil, h.toStatus("GetFraudStats", err)
	}
	return &GetFraudStatsResponse{
		TotalTransactions:      result.TotalTransactions,
		FraudulentTransactions: result.FraudulentTransactions,
		FraudRate:              result.FraudRate,
	}, nil
}

func callerFromContext(ctx context.Context) (dto.Caller, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return dto.Caller{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	return dto.CallerFromClaims(claims), nil
}

func (h *RiskServiceHandler) toStatus(method string, err error) error {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.Is(err, usecase.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		h.logger.Error("request failed", slog.String("method", method), slog.String("error", err.Error()))
		return status.Error(codes.Internal, "internal error")
	}
}

func toRecordMsg(tx dto.TransactionResponse) *TransactionRecordMsg {
	msg := &TransactionRecordMsg{
		ID:               tx.ID.String(),
		UserID:           tx.UserID.String(),
		Amount:           tx.Amount,
		Location:         tx.Location,
		DeviceType:       tx.DeviceType,
		MerchantCategory: tx.MerchantCategory,
		IPAddress:        tx.IPAddress,
		PaymentMethod:    tx.PaymentMethod,
		RuleRiskScore:    tx.RuleRiskScore,
		MLRiskScore:      tx.MLRiskScore,
		FinalRiskScore:   tx.FinalRiskScore,
		IsFraud:          tx.IsFraud,
		ActionTaken:      tx.ActionTaken,
		MLStatus:         tx.MLStatus,
		PolicyVersion:    tx.PolicyVersion,
		CreatedAt:        tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if tx.TransactionTime != nil {
		msg.TransactionTime = tx.TransactionTime.UTC().Format(time.RFC3339)
	}
	return msg
}
