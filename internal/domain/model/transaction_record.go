package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/txshield/txshield/internal/domain/event"
	"github.com/txshield/txshield/internal/domain/valueobject"
	"github.com/txshield/txshield/pkg/events"
)

// ErrMissingOwner is returned when a record would have no owning user.
var ErrMissingOwner = errors.New("transaction record requires an owner")

// TransactionRecord is the append-only audit entry for one scored transaction.
// It has no mutators; IsFraud is derived from the action at construction.
type TransactionRecord struct {
	events.EventCollector

	id      uuid.UUID
	ownerID uuid.UUID
	input   TransactionInput

	ruleRiskScore  float64
	mlRiskScore    float64
	finalRiskScore float64
	isFraud        bool
	actionTaken    valueobject.Action

	mlStatus      valueobject.MLStatus
	ruleBreakdown map[string]float64
	mlBreakdown   map[string]any
	policyVersion string

	createdAt time.Time
}

// NewTransactionRecord assembles a record from a validated input and a complete
// score result, tagging it with ownerID.
func NewTransactionRecord(ownerID uuid.UUID, input TransactionInput, result ScoreResult) (*TransactionRecord, error) {
	if ownerID == uuid.Nil {
		return nil, ErrMissingOwner
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := result.Complete(); err != nil {
		return nil, err
	}

	r := &TransactionRecord{
		id:             uuid.New(),
		ownerID:        ownerID,
		input:          input,
		ruleRiskScore:  result.RuleScore,
		mlRiskScore:    result.MLScore,
		finalRiskScore: result.FinalScore,
		isFraud:        result.Action.IsBlock(),
		actionTaken:    result.Action,
		mlStatus:       result.ML.Status(),
		ruleBreakdown:  result.RuleBreakdown(),
		mlBreakdown:    result.ML.Breakdown(),
		policyVersion:  result.PolicyVersion,
		createdAt:      time.Now().UTC(),
	}

	r.Record(event.NewTransactionScored(
		r.id, r.ownerID, r.input.Amount.String(),
		r.ruleRiskScore, r.mlRiskScore, r.finalRiskScore,
		r.actionTaken.String(), string(r.mlStatus), r.policyVersion,
		r.createdAt,
	))
	if r.isFraud {
		r.Record(event.NewTransactionBlocked(r.id, r.ownerID, r.finalRiskScore, result.FiredRules(), r.createdAt))
	}

	return r, nil
}

// ReconstructParams carries the persisted columns of a record.
type ReconstructParams struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Input          TransactionInput
	RuleRiskScore  float64
	MLRiskScore    float64
	FinalRiskScore float64
	IsFraud        bool
	ActionTaken    string
	MLStatus       string
	RuleBreakdown  map[string]float64
	MLBreakdown    map[string]any
	PolicyVersion  string
	CreatedAt      time.Time
}

// Reconstruct rebuilds a record from storage (no validation of scores, no events).
func Reconstruct(p ReconstructParams) (*TransactionRecord, error) {
	action, err := valueobject.ActionFromString(p.ActionTaken)
	if err != nil {
		return nil, fmt.Errorf("reconstruct record %s: %w", p.ID, err)
	}
	return &TransactionRecord{
		id:             p.ID,
		ownerID:        p.OwnerID,
		input:          p.Input,
		ruleRiskScore:  p.RuleRiskScore,
		mlRiskScore:    p.MLRiskScore,
		finalRiskScore: p.FinalRiskScore,
		isFraud:        p.IsFraud,
		actionTaken:    action,
		mlStatus:       valueobject.MLStatus(p.MLStatus),
		ruleBreakdown:  p.RuleBreakdown,
		mlBreakdown:    p.MLBreakdown,
		policyVersion:  p.PolicyVersion,
		createdAt:      p.CreatedAt,
	}, nil
}

func (r *TransactionRecord) ID() uuid.UUID                     { return r.id }
func (r *TransactionRecord) OwnerID() uuid.UUID                { return r.ownerID }
func (r *TransactionRecord) Input() TransactionInput           { return r.input }
func (r *TransactionRecord) Amount() decimal.Decimal           { return r.input.Amount }
func (r *TransactionRecord) RuleRiskScore() float64            { return r.ruleRiskScore }
func (r *TransactionRecord) MLRiskScore() float64              { return r.mlRiskScore }
func (r *TransactionRecord) FinalRiskScore() float64           { return r.finalRiskScore }
func (r *TransactionRecord) IsFraud() bool                     { return r.isFraud }
func (r *TransactionRecord) ActionTaken() valueobject.Action   { return r.actionTaken }
func (r *TransactionRecord) MLStatus() valueobject.MLStatus    { return r.mlStatus }
func (r *TransactionRecord) RuleBreakdown() map[string]float64 { return r.ruleBreakdown }
func (r *TransactionRecord) MLBreakdown() map[string]any       { return r.mlBreakdown }
func (r *TransactionRecord) PolicyVersion() string             { return r.policyVersion }
func (r *TransactionRecord) CreatedAt() time.Time              { return r.createdAt }
