package usecase

import (
	"context"
	"fmt"

	"github.com/txshield/txshield/internal/application/dto"
	"github.com/txshield/txshield/internal/domain/port"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ListTransactions returns the records visible to a caller, newest first.
type ListTransactions struct {
	repo port.TransactionRepository
}

// NewListTransactions creates a new ListTransactions use case.
func NewListTransactions(repo port.TransactionRepository) *ListTransactions {
	return &ListTransactions{repo: repo}
}

// Execute lists every record for privileged callers and the caller's own
// records otherwise.
func (uc *ListTransactions) Execute(ctx context.Context, caller dto.Caller, req dto.ListTransactionsRequest) (dto.ListTransactionsResponse, error) {
	ctx, span := startSpan(ctx, "ListTransactions")
	defer span.End()

	if !caller.Authenticated() {
		return dto.ListTransactionsResponse{}, ErrUnauthenticated
	}
	if req.Offset < 0 {
		return dto.ListTransactionsResponse{}, fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
	}

	filter := scopeFilter(caller)
	filter.FraudOnly = req.FraudOnly
	filter.Limit = normalizeLimit(req.Limit)
	filter.Offset = req.Offset

	records, err := uc.repo.List(ctx, filter)
	if err != nil {
		return dto.ListTransactionsResponse{}, fmt.Errorf("failed to list records: %w", err)
	}

	out := make([]dto.TransactionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.FromModel(r))
	}
	return dto.ListTransactionsResponse{
		Transactions: out,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}, nil
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// scopeFilter restricts queries to the caller's own records unless privileged.
func scopeFilter(caller dto.Caller) port.RecordFilter {
	if caller.Privileged {
		return port.RecordFilter{}
	}
	owner := caller.UserID
	return port.RecordFilter{OwnerID: &owner}
}
