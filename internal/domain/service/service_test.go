package service_test

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/txshield/txshield/internal/domain/model"
	"github.com/txshield/txshield/internal/domain/valueobject"
	"github.com/txshield/txshield/pkg/observability"
)

type stubML struct {
	assessment valueobject.MLAssessment
	calls      int
}

func (s *stubML) Assess(_ context.Context, _ model.TransactionInput) valueobject.MLAssessment {
	s.calls++
	return s.assessment
}

type stubLocator struct {
	countries map[string]string
	err       error
}

func (l stubLocator) CountryCode(ip string) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	cc, ok := l.countries[ip]
	if !ok {
		return "", errors.New("not found")
	}
	return cc, nil
}

func amount(units int64) decimal.Decimal {
	return decimal.NewFromInt(units)
}

var nopLogger = observability.NopLogger()
