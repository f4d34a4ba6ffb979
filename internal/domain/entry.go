package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryCategory classifies a money movement.
type EntryCategory string

const (
	EntryCategoryPurchase        EntryCategory = "purchase"
	EntryCategorySale            EntryCategory = "sale"
	EntryCategoryLoanDisbursed   EntryCategory = "loan_disbursement"
	EntryCategoryLoanRepayment   EntryCategory = "loan_repayment"
	EntryCategoryFee             EntryCategory = "fee"
	EntryCategoryPointConversion EntryCategory = "point_conversion"
	EntryCategoryRefund          EntryCategory = "refund"
	EntryCategoryPenalty         EntryCategory = "penalty"
	EntryCategoryMembershipFee   EntryCategory = "membership_fee"
	EntryCategoryDeliveryFee     EntryCategory = "delivery_fee"
	EntryCategoryDeposit         EntryCategory = "deposit"
	EntryCategoryEscrow          EntryCategory = "escrow"
)

// EntryStatus is the lifecycle of a ledger entry. Entries are append-only;
// the only permitted mutation is the pending-to-terminal status change.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusRejected  EntryStatus = "rejected"
)

// CanTransitionTo reports whether a status change is allowed.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	if s != EntryStatusPending {
		return false
	}

	return next == EntryStatusCompleted || next == EntryStatusRejected
}

// LedgerEntry is the immutable record of one money movement. Amount is
// signed from the owning account's perspective: debits negative, credits
// positive. Metadata links the entry to its originating workflow.
type LedgerEntry struct {
	ID              string
	AccountID       string
	Amount          decimal.Decimal
	Category        EntryCategory
	Description     string
	Status          EntryStatus
	Metadata        map[string]any
	PreviousBalance decimal.Decimal
	CurrentBalance  decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks entry invariants before persistence.
func (e *LedgerEntry) Validate() error {
	if e.AccountID == "" {
		return ErrAccountNotFound
	}

	if e.Amount.IsZero() {
		return ErrInvalidAmount
	}

	return nil
}
