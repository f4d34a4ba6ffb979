package domain

import "github.com/shopspring/decimal"

// Reserve split policy. The four small shares are equal quarters of the
// 20% retained after the profit pool.
var (
	splitRateProfit = decimal.NewFromFloat(0.80)
	splitRateMinor  = decimal.NewFromFloat(0.05) // tax, operational, owner, investment
)

// FeeSplit is the partition of one gross fee amount across the five
// reserve pools. The parts always sum to the gross amount to the cent.
type FeeSplit struct {
	Gross       decimal.Decimal
	Profit      decimal.Decimal
	Tax         decimal.Decimal
	Operational decimal.Decimal
	Owner       decimal.Decimal
	Investment  decimal.Decimal
}

// SplitFee partitions gross across the five pools. Every share except the
// operational reserve is truncated to the cent; the operational reserve is
// the designated sink for the rounding remainder, so the parts reassemble
// gross exactly.
func SplitFee(gross decimal.Decimal) (FeeSplit, error) {
	if gross.IsNegative() {
		return FeeSplit{}, ErrInvalidAmount
	}

	gross = gross.Round(2)

	profit := gross.Mul(splitRateProfit).RoundDown(2)
	tax := gross.Mul(splitRateMinor).RoundDown(2)
	owner := gross.Mul(splitRateMinor).RoundDown(2)
	investment := gross.Mul(splitRateMinor).RoundDown(2)
	operational := gross.Sub(profit).Sub(tax).Sub(owner).Sub(investment)

	return FeeSplit{
		Gross:       gross,
		Profit:      profit,
		Tax:         tax,
		Operational: operational,
		Owner:       owner,
		Investment:  investment,
	}, nil
}

// Total returns the sum of all five parts.
func (s FeeSplit) Total() decimal.Decimal {
	return s.Profit.Add(s.Tax).Add(s.Operational).Add(s.Owner).Add(s.Investment)
}

// Shares returns pool account IDs mapped to their share, omitting zero
// shares so no empty ledger entries are written.
func (s FeeSplit) Shares() map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, 5)

	for id, part := range map[string]decimal.Decimal{
		SystemAccountProfit:      s.Profit,
		SystemAccountTax:         s.Tax,
		SystemAccountOperational: s.Operational,
		SystemAccountOwner:       s.Owner,
		SystemAccountInvestment:  s.Investment,
	} {
		if part.IsPositive() {
			shares[id] = part
		}
	}

	return shares
}
