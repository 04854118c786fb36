package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/pkg/auth"
)

// Caller identifies the authenticated user a request is made on behalf of.
type Caller struct {
	UserID     uuid.UUID
	Privileged bool
}

// CallerFromClaims maps validated JWT claims to a Caller. Admins and analysts
// see every owner's records.
func CallerFromClaims(c *auth.Claims) Caller {
	if c == nil {
		return Caller{}
	}
	return Caller{
		UserID:     c.UserID,
		Privileged: c.CanReadAll(),
	}
}

// Authenticated reports whether the caller carries an owner identity.
func (c Caller) Authenticated() bool {
	return c.UserID != uuid.Nil
}

// ScoreTransactionRequest is the input DTO for the ScoreTransaction use case.
type ScoreTransactionRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	TransactionTime  *time.Time      `json:"transactionTime,omitempty"`
	Location         string          `json:"location"`
	DeviceType       string          `json:"deviceType"`
	MerchantCategory string          `json:"merchantCategory"`
	IPAddress        string          `json:"ipAddress"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
}

// ToInput maps the request to the domain input snapshot.
func (r ScoreTransactionRequest) ToInput() model.TransactionInput {
	return model.TransactionInput{
		Amount:           r.Amount,
		Location:         r.Location,
		DeviceType:       r.DeviceType,
		MerchantCategory: r.MerchantCategory,
		IPAddress:        r.IPAddress,
		PaymentMethod:    r.PaymentMethod,
		TransactionTime:  r.TransactionTime,
	}
}

// TransactionResponse is the persisted record as returned to clients.
type TransactionResponse struct {
	CreatedAt        time.Time  `json:"createdAt"`
	TransactionTime  *time.Time `json:"transactionTime,omitempty"`
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"userId"`
	Amount           string     `json:"amount"`
	Location         string     `json:"location"`
	DeviceType       string     `json:"deviceType"`
	MerchantCategory string     `json:"merchantCategory"`
	IPAddress        string     `json:"ipAddress"`
	PaymentMethod    string     `json:"paymentMethod,omitempty"`
	ActionTaken      string     `json:"actionTaken"`
	MLStatus         string     `json:"mlStatus"`
	PolicyVersion    string     `json:"policyVersion"`
	RuleRiskScore    float64    `json:"ruleRiskScore"`
	MLRiskScore      float64    `json:"mlRiskScore"`
	FinalRiskScore   float64    `json:"finalRiskScore"`
	IsFraud          bool       `json:"isFraud"`
}

// ScoreTransactionResponse is returned after a transaction has been scored and stored.
type ScoreTransactionResponse struct {
	Transaction   TransactionResponse `json:"transaction"`
	MLBreakdown   map[string]any      `json:"mlBreakdown"`
	RuleBreakdown map[string]float64  `json:"ruleBreakdown"`
	MLStatus      string              `json:"mlStatus"`
}

// ListTransactionsRequest pages through the caller's visible records.
type ListTransactionsRequest struct {
	Limit     int  `json:"limit"`
	Offset    int  `json:"offset"`
	FraudOnly bool `json:"fraudOnly"`
}

// ListTransactionsResponse is one page of records, newest first.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// FraudStatsResponse carries aggregate counts and the fraud rate as a
// percentage with two decimals.
type FraudStatsResponse struct {
	FraudRate              string `json:"fraudRate"`
	TotalTransactions      int64  `json:"totalTransactions"`
	FraudulentTransactions int64  `json:"fraudulentTransactions"`
}

// FromModel maps a domain record to the response DTO.
func FromModel(r *model.TransactionRecord) TransactionResponse {
	in := r.Input()
	return TransactionResponse{
		ID:               r.ID(),
		UserID:           r.OwnerID(),
		Amount:           r.Amount().String(),
		Location:         in.Location,
		DeviceType:       in.DeviceType,
		MerchantCategory: in.MerchantCategory,
		IPAddress:        in.IPAddress,
		PaymentMethod:    in.PaymentMethod,
		TransactionTime:  in.TransactionTime,
		RuleRiskScore:    r.RuleRiskScore(),
		MLRiskScore:      r.MLRiskScore(),
		FinalRiskScore:   r.FinalRiskScore(),
		IsFraud:          r.IsFraud(),
		ActionTaken:      r.ActionTaken().String(),
		MLStatus:         string(r.MLStatus()),
		PolicyVersion:    r.PolicyVersion(),
		CreatedAt:        r.CreatedAt(),
	}
}
