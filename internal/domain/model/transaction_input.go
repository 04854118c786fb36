package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransaction wraps every TransactionInput validation failure.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Amounts are stored as NUMERIC(20, 2). Anything the column would round or
// reject is refused here so the stored amount is the amount that was scored.
const AmountScale = 2

// MaxAmount is the exclusive upper bound on Amount.
var MaxAmount = decimal.New(1, 18)

// TransactionInput is the snapshot of a submitted transaction. It is passed by
// value and never mutated after construction.
type TransactionInput struct {
	Amount           decimal.Decimal
	Location         string
	DeviceType       string
	MerchantCategory string
	IPAddress        string
	PaymentMethod    string

	// TransactionTime is optional.
	TransactionTime *time.Time
}

// Validate reports every missing or malformed required field at once.
// PaymentMethod and TransactionTime are optional.
func (in TransactionInput) Validate() error {
	var problems []string

	switch {
	case !in.Amount.IsPositive():
		problems = append(problems, "amount must be positive")
	case !in.Amount.Equal(in.Amount.Truncate(AmountScale)):
		problems = append(problems, fmt.Sprintf("amount must have at most %d decimal places", AmountScale))
	case in.Amount.GreaterThanOrEqual(MaxAmount):
		problems = append(problems, "amount must be below "+MaxAmount.String())
	}
	required := []struct {
		name  string
		value string
	}{
		{"location", in.Location},
		{"deviceType", in.DeviceType},
		{"merchantCategory", in.MerchantCategory},
		{"ipAddress", in.IPAddress},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			problems = append(problems, f.name+" is required")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTransaction, strings.Join(problems, "; "))
	}
	return nil
}
