package external

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/usecase"
)

// StaticCreditBureau is a policy-driven stand-in for the external credit
// scoring service. It approves any application up to a configured ceiling
// at a fixed rate.
type StaticCreditBureau struct {
	maxAmount decimal.Decimal
	rate      decimal.Decimal
}

// NewStaticCreditBureau creates a StaticCreditBureau.
func NewStaticCreditBureau(maxAmount, rate decimal.Decimal) *StaticCreditBureau {
	return &StaticCreditBureau{maxAmount: maxAmount, rate: rate}
}

// GetCreditOffer evaluates a loan application.
func (b *StaticCreditBureau) GetCreditOffer(ctx context.Context, accountID string, amount decimal.Decimal, installments int) (*usecase.CreditOffer, error) {
	if amount.GreaterThan(b.maxAmount) {
		return &usecase.CreditOffer{
			Approved: false,
			Reason:   "requested amount exceeds credit limit",
		}, nil
	}

	return &usecase.CreditOffer{
		Approved:  true,
		Rate:      b.rate,
		Guarantee: "platform",
	}, nil
}
