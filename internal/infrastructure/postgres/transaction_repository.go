package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/port"
	pgutil "github.com/txshield/txshield/pkg/postgres"
)

var _ port.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository implements port.TransactionRepository using PostgreSQL.
// Records are inserted once and never updated.
type TransactionRepository struct {
	db pgutil.Querier
}

// NewTransactionRepository creates a repository over a pool or transaction.
func NewTransactionRepository(db pgutil.Querier) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const selectColumns = `
	id, owner_id, amount, location, device_type, merchant_category,
	ip_address, payment_method, transaction_time,
	rule_risk_score, ml_risk_score, final_risk_score, is_fraud, action_taken,
	ml_status, rule_breakdown, ml_breakdown, policy_version, created_at`

// Append inserts a single record.
func (r *TransactionRepository) Append(ctx context.Context, rec *model.TransactionRecord) error {
	ruleBreakdown, err := json.Marshal(rec.RuleBreakdown())
	if err != nil {
		return fmt.Errorf("failed to encode rule breakdown: %w", err)
	}
	mlBreakdown, err := json.Marshal(rec.MLBreakdown())
	if err != nil {
		return fmt.Errorf("failed to encode ml breakdown: %w", err)
	}

	in := rec.Input()
	_, err = r.db.Exec(ctx, `
		INSERT INTO risk_transactions (`+selectColumns+`
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		rec.ID(),
		rec.OwnerID(),
		in.Amount,
		in.Location,
		in.DeviceType,
		in.MerchantCategory,
		in.IPAddress,
		in.PaymentMethod,
		in.TransactionTime,
		rec.RuleRiskScore(),
		rec.MLRiskScore(),
		rec.FinalRiskScore(),
		rec.IsFraud(),
		rec.ActionTaken().String(),
		string(rec.MLStatus()),
		ruleBreakdown,
		mlBreakdown,
		rec.PolicyVersion(),
		rec.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction record: %w", err)
	}
	return nil
}

// List returns matching records, newest first.
func (r *TransactionRepository) List(ctx context.Context, filter port.RecordFilter) ([]*model.TransactionRecord, error) {
	where, args := whereClause(filter)

	query := `SELECT ` + selectColumns + ` FROM risk_transactions` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction records: %w", err)
	}
	defer rows.Close()

	records := make([]*model.TransactionRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transaction records: %w", err)
	}

	return records, nil
}

// Stats counts matching and fraudulent records in a single statement.
func (r *TransactionRepository) Stats(ctx context.Context, filter port.RecordFilter) (port.FraudStats, error) {
	filter.FraudOnly = false
	where, args := whereClause(filter)

	var stats port.FraudStats
	err := r.db.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE is_fraud) FROM risk_transactions`+where, args...,
	).Scan(&stats.Total, &stats.Fraudulent)
	if err != nil {
		return port.FraudStats{}, fmt.Errorf("failed to count transaction records: %w", err)
	}
	return stats, nil
}

func whereClause(filter port.RecordFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conds = append(conds, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if filter.FraudOnly {
		conds = append(conds, "is_fraud")
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRecord(row pgx.Row) (*model.TransactionRecord, error) {
	var (
		id, ownerID                 uuid.UUID
		amount                      decimal.Decimal
		location, deviceType        string
		merchantCategory, ipAddress string
		paymentMethod               string
		transactionTime             *time.Time
		ruleScore, mlScore          float64
		finalScore                  float64
		isFraud                     bool
		action, mlStatus            string
		ruleRaw, mlRaw              []byte
		policyVersion               string
		createdAt                   time.Time
	)

	err := row.Scan(
		&id, &ownerID, &amount, &location, &deviceType, &merchantCategory,
		&ipAddress, &paymentMethod, &transactionTime,
		&ruleScore, &mlScore, &finalScore, &isFraud, &action,
		&mlStatus, &ruleRaw, &mlRaw, &policyVersion, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction record: %w", err)
	}

	ruleBreakdown := map[string]float64{}
	if err := json.Unmarshal(ruleRaw, &ruleBreakdown); err != nil {
		return nil, fmt.Errorf("failed to decode rule breakdown of %s: %w", id, err)
	}
	mlBreakdown := map[string]any{}
	if err := json.Unmarshal(mlRaw, &mlBreakdown); err != nil {
		return nil, fmt.Errorf("failed to decode ml breakdown of %s: %w", id, err)
	}

	return model.Reconstruct(model.ReconstructParams{
		ID:      id,
		OwnerID: ownerID,
		Input: model.TransactionInput{
			Amount:           amount,
			Location:         location,
			DeviceType:       deviceType,
			MerchantCategory: merchantCategory,
			IPAddress:        ipAddress,
			PaymentMethod:    paymentMethod,
			TransactionTime:  transactionTime,
		},
		RuleRiskScore:  ruleScore,
		MLRiskScore:    mlScore,
		FinalRiskScore: finalScore,
		IsFraud:        isFraud,
		ActionTaken:    action,
		MLStatus:       mlStatus,
		RuleBreakdown:  ruleBreakdown,
		MLBreakdown:    mlBreakdown,
		PolicyVersion:  policyVersion,
		CreatedAt:      createdAt,
	})
}
