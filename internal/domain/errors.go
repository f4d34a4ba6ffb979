package domain

import "errors"

var (
	// Ledger errors
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientLiquidity = errors.New("insufficient system liquidity")
	ErrAccountNotFound       = errors.New("account not found")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrSameAccount           = errors.New("cannot move funds to the same account")
	ErrReservationRequired   = errors.New("debit requires a prior reservation")

	// Workflow errors
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrValidationFailed       = errors.New("validation failed")

	// Order errors
	ErrOrderNotFound     = errors.New("order not found")
	ErrListingNotFound   = errors.New("listing not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOutsideBusiness   = errors.New("outside business hours")
	ErrMonthlySalesCap   = errors.New("monthly sales limit reached")

	// Loan errors
	ErrLoanNotFound        = errors.New("loan not found")
	ErrInstallmentNotFound = errors.New("installment not found")
	ErrLoanAlreadySettled  = errors.New("loan already settled")
	ErrCreditOfferDeclined = errors.New("credit offer declined")

	// Points errors
	ErrInsufficientPoints = errors.New("insufficient points for conversion")
)

// businessErrors is the closed set of recoverable failures a unit of work
// may hand back to the caller. Anything outside it is an infrastructure
// fault whose outcome must be re-queried, never blindly resubmitted.
var businessErrors = []error{
	ErrInsufficientFunds,
	ErrInsufficientLiquidity,
	ErrAccountNotFound,
	ErrInvalidAmount,
	ErrSameAccount,
	ErrReservationRequired,
	ErrInvalidStateTransition,
	ErrConcurrentModification,
	ErrValidationFailed,
	ErrOrderNotFound,
	ErrListingNotFound,
	ErrInsufficientStock,
	ErrOutsideBusiness,
	ErrMonthlySalesCap,
	ErrLoanNotFound,
	ErrInstallmentNotFound,
	ErrLoanAlreadySettled,
	ErrCreditOfferDeclined,
	ErrInsufficientPoints,
}

// IsBusinessError reports whether err belongs to the recoverable taxonomy,
// as opposed to an infrastructure failure such as a dropped connection.
func IsBusinessError(err error) bool {
	for _, candidate := range businessErrors {
		if errors.Is(err, candidate) {
			return true
		}
	}

	return false
}
