package external

import (
	"context"

	"github.com/shopspring/decimal"
)

// FlatShippingQuoter quotes the same delivery fee for every courier order.
// A real carrier integration would price by distance and weight.
type FlatShippingQuoter struct {
	fee decimal.Decimal
}

// NewFlatShippingQuoter creates a FlatShippingQuoter.
func NewFlatShippingQuoter(fee decimal.Decimal) *FlatShippingQuoter {
	return &FlatShippingQuoter{fee: fee}
}

// Quote returns the configured flat delivery fee.
func (q *FlatShippingQuoter) Quote(ctx context.Context, sellerID, buyerID string) (decimal.Decimal, error) {
	return q.fee, nil
}
