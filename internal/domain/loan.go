package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the loan lifecycle state.
type LoanStatus string

const (
	LoanStatusPending        LoanStatus = "pending"
	LoanStatusApproved       LoanStatus = "approved"
	LoanStatusPaymentPending LoanStatus = "payment_pending"
	LoanStatusPaid           LoanStatus = "paid"
	LoanStatusRejected       LoanStatus = "rejected"
	LoanStatusCancelled      LoanStatus = "cancelled"
)

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending:        {LoanStatusApproved, LoanStatusRejected, LoanStatusCancelled},
	LoanStatusApproved:       {LoanStatusPaymentPending, LoanStatusPaid, LoanStatusCancelled},
	LoanStatusPaymentPending: {LoanStatusPaid, LoanStatusCancelled},
}

// CanTransitionTo reports whether the status change is permitted.
func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range loanTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsTerminal reports whether the loan can never change state again.
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusPaid || s == LoanStatusRejected || s == LoanStatusCancelled
}

// PaidTolerance absorbs cent rounding when deciding a loan is settled.
var PaidTolerance = decimal.NewFromFloat(0.01)

// Loan is a simple non-compounding loan: total repayment is fixed at
// origination as principal times one plus the rate.
type Loan struct {
	ID               string
	BorrowerID       string
	Principal        decimal.Decimal
	Rate             decimal.Decimal
	TotalRepayment   decimal.Decimal
	OriginationFee   decimal.Decimal
	DisbursedAmount  decimal.Decimal
	Outstanding      decimal.Decimal
	InstallmentCount int
	Status           LoanStatus
	DueDate          time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ApprovedAt       *time.Time
}

// NewTotalRepayment computes principal times one plus rate, to the cent.
func NewTotalRepayment(principal, rate decimal.Decimal) decimal.Decimal {
	return principal.Mul(decimal.NewFromInt(1).Add(rate)).Round(2)
}

// RepaymentSplit divides an installment payment into its principal and
// interest parts using the loan's own principal to total-repayment ratio.
// The interest part absorbs the rounding cent so both always sum to the
// payment exactly.
func (l *Loan) RepaymentSplit(payment decimal.Decimal) (principal, interest decimal.Decimal) {
	if l.TotalRepayment.IsZero() {
		return payment, decimal.Zero
	}

	principal = payment.Mul(l.Principal).Div(l.TotalRepayment).RoundDown(2)
	interest = payment.Sub(principal)

	return principal, interest
}

// Settled reports whether the cumulative paid amount covers the total
// repayment within the cent tolerance.
func (l *Loan) Settled(paidTotal decimal.Decimal) bool {
	return l.TotalRepayment.Sub(paidTotal).LessThanOrEqual(PaidTolerance)
}

// InstallmentStatus is the per-payment state.
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
)

// Installment is one scheduled loan payment.
type Installment struct {
	ID             string
	LoanID         string
	Number         int
	ExpectedAmount decimal.Decimal
	PaidAmount     decimal.Decimal
	DueDate        time.Time
	Status         InstallmentStatus
	PaidAt         *time.Time
}

// ScheduleInstallments splits total into count equal cent amounts, the
// last installment absorbing the remainder so the schedule sums to total
// exactly (1000.00 over 3 yields 333.33, 333.33, 333.34).
func ScheduleInstallments(total decimal.Decimal, count int) []decimal.Decimal {
	if count <= 0 {
		return nil
	}

	per := total.Div(decimal.NewFromInt(int64(count))).RoundDown(2)

	amounts := make([]decimal.Decimal, count)
	running := decimal.Zero

	for i := 0; i < count-1; i++ {
		amounts[i] = per
		running = running.Add(per)
	}

	amounts[count-1] = total.Sub(running)

	return amounts
}
