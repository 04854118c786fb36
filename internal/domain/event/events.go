package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/txshield/txshield/pkg/events"
)

const (
	// EventTypeTransactionScored is emitted for every recorded decision.
	EventTypeTransactionScored = "risk.transaction.scored"

	// EventTypeTransactionBlocked is emitted in addition when the decision is Block.
	EventTypeTransactionBlocked = "risk.transaction.blocked"

	// AggregateTypeTransactionRecord names the aggregate that raises these events.
	AggregateTypeTransactionRecord = "TransactionRecord"
)

// TransactionScored is published once a scored transaction has been recorded.
type TransactionScored struct {
	events.BaseEvent
	RecordID       uuid.UUID `json:"recordId"`
	OwnerID        uuid.UUID `json:"ownerId"`
	Amount         string    `json:"amount"`
	RuleRiskScore  float64   `json:"ruleRiskScore"`
	MLRiskScore    float64   `json:"mlRiskScore"`
	FinalRiskScore float64   `json:"finalRiskScore"`
	Action         string    `json:"actionTaken"`
	MLStatus       string    `json:"mlStatus"`
	PolicyVersion  string    `json:"policyVersion"`
	ScoredAt       time.Time `json:"scoredAt"`
}

// NewTransactionScored builds a TransactionScored event.
func NewTransactionScored(
	recordID, ownerID uuid.UUID,
	amount string,
	ruleScore, mlScore, finalScore float64,
	action, mlStatus, policyVersion string,
	scoredAt time.Time,
) TransactionScored {
	return TransactionScored{
		BaseEvent:      events.NewBaseEvent(EventTypeTransactionScored, recordID, AggregateTypeTransactionRecord),
		RecordID:       recordID,
		OwnerID:        ownerID,
		Amount:         amount,
		RuleRiskScore:  ruleScore,
		MLRiskScore:    mlScore,
		FinalRiskScore: finalScore,
		Action:         action,
		MLStatus:       mlStatus,
		PolicyVersion:  policyVersion,
		ScoredAt:       scoredAt,
	}
}

// TransactionBlocked is published when a transaction is blocked as fraud,
// for downstream alerting.
type TransactionBlocked struct {
	events.BaseEvent
	RecordID       uuid.UUID `json:"recordId"`
	OwnerID        uuid.UUID `json:"ownerId"`
	FinalRiskScore float64   `json:"finalRiskScore"`
	FiredRules     []string  `json:"firedRules"`
	BlockedAt      time.Time `json:"blockedAt"`
}

// NewTransactionBlocked builds a TransactionBlocked event.
func NewTransactionBlocked(recordID, ownerID uuid.UUID, finalScore float64, firedRules []string, blockedAt time.Time) TransactionBlocked {
	return TransactionBlocked{
		BaseEvent:      events.NewBaseEvent(EventTypeTransactionBlocked, recordID, AggregateTypeTransactionRecord),
		RecordID:       recordID,
		OwnerID:        ownerID,
		FinalRiskScore: finalScore,
		FiredRules:     firedRules,
		BlockedAt:      blockedAt,
	}
}
