package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MaxMovementAmount bounds any single money movement.
	MaxMovementAmount = "1000000000" // 1 billion
	// MinMovementAmount is one cent; amounts cross the boundary with two
	// fractional digits.
	MinMovementAmount = "0.01"
)

// ValidateAmount validates a monetary amount crossing the core boundary.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinMovementAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrInvalidAmount, MinMovementAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxMovementAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrInvalidAmount, MaxMovementAmount)
	}

	if amount.Exponent() < -2 {
		return fmt.Errorf("%w: amounts carry at most two fractional digits", ErrInvalidAmount)
	}

	return nil
}

// ValidateRate validates a fractional rate (0 < rate < 1).
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: rate must be a fraction between 0 and 1", ErrValidationFailed)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
