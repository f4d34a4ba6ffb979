package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultTransactionTimeout is the maximum duration for a database
	// transaction. Prevents long-running units of work from pinning row
	// locks on the pool accounts.
	DefaultTransactionTimeout = 10 * time.Second

	// WelcomeMaxUses caps the discounted welcome-benefit orders per buyer.
	WelcomeMaxUses = 5

	// DefaultMonthlySalesLimit is the per-seller cap of confirmed orders
	// per rolling month.
	DefaultMonthlySalesLimit = 50
)

// Escrow fee rates. The effective rate is picked per seller verification
// status; a remaining welcome benefit overrides both.
var (
	EscrowRateVerified = decimal.NewFromFloat(0.08)
	EscrowRateStandard = decimal.NewFromFloat(0.12)
	WelcomeRate        = decimal.NewFromFloat(0.05)
)

// Loan policy.
var (
	// LoanOriginationFeeRate is deducted from the disbursed amount and
	// routed through the reserve partition.
	LoanOriginationFeeRate = decimal.NewFromFloat(0.02)

	// LoanLiquidityFactor gates auto-approval: a loan qualifies only when
	// its amount fits within this share of the main pool balance minus
	// everything currently loaned out.
	LoanLiquidityFactor = decimal.NewFromFloat(0.7)
)
