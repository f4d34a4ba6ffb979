package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes member wallets from the singleton system pools.
type AccountKind string

const (
	AccountKindUser   AccountKind = "user"
	AccountKindSystem AccountKind = "system"
)

// System pool account IDs. These rows are seeded once and live behind the
// same locking and conservation rules as user accounts.
const (
	SystemAccountMain        = "sys_main"
	SystemAccountProfit      = "sys_profit"
	SystemAccountTax         = "sys_tax"
	SystemAccountOperational = "sys_operational"
	SystemAccountOwner       = "sys_owner"
	SystemAccountInvestment  = "sys_investment"
)

// SystemAccountIDs lists every reserve pool in a stable order.
var SystemAccountIDs = []string{
	SystemAccountMain,
	SystemAccountProfit,
	SystemAccountTax,
	SystemAccountOperational,
	SystemAccountOwner,
	SystemAccountInvestment,
}

// Account holds a non-negative currency balance and, for user accounts, an
// accumulated point balance and the remaining welcome-benefit uses.
type Account struct {
	ID              string
	Kind            AccountKind
	Name            string
	Balance         decimal.Decimal
	Points          int64
	WelcomeUsesLeft int
	SellerVerified  bool
	Score           int
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsSystem reports whether the account is one of the reserve pools.
func (a *Account) IsSystem() bool {
	return a.Kind == AccountKindSystem
}

// ValidateDebit checks that debiting amount keeps the balance non-negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if a.Balance.LessThan(amount) {
		if a.IsSystem() {
			return ErrInsufficientLiquidity
		}

		return ErrInsufficientFunds
	}

	return nil
}

// ApplyDebit returns the balance after a debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after a credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
