package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Listing is a marketplace item offered by a seller.
type Listing struct {
	ID        string
	SellerID  string
	Title     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListingVariant holds the purchasable unit: price and stock live here.
// Stock is mutated only under a row lock inside an order's unit of work.
type ListingVariant struct {
	ID        string
	ListingID string
	Name      string
	Price     decimal.Decimal
	Stock     int
	UpdatedAt time.Time
}

// ValidateReserve checks that quantity units can be taken from stock.
func (v *ListingVariant) ValidateReserve(quantity int) error {
	if quantity <= 0 {
		return ErrValidationFailed
	}

	if v.Stock < quantity {
		return ErrInsufficientStock
	}

	return nil
}
