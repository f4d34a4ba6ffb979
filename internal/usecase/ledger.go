package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
)

// Ledger is the atomic building block every workflow composes from: lock,
// reserve, debit, credit against a single account, always inside a caller
// provided transaction. It is not independently transactional.
type Ledger struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	idGen       IDGenerator
}

// NewLedger creates the ledger primitive.
func NewLedger(accountRepo AccountRepository, entryRepo EntryRepository, idGen IDGenerator) *Ledger {
	return &Ledger{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		idGen:       idGen,
	}
}

// EntrySpec describes the ledger entry recorded for one movement.
type EntrySpec struct {
	Category    domain.EntryCategory
	Description string
	Status      domain.EntryStatus
	Metadata    map[string]any
}

// Reservation proves a row lock and sufficiency assertion were taken for
// an account in the current unit of work. A debit is only honored against
// a reservation covering its amount, so two concurrent workflows cannot
// interleave past the same balance.
type Reservation struct {
	account *domain.Account
	amount  decimal.Decimal
}

// Account returns the reserved account.
func (r *Reservation) Account() *domain.Account {
	return r.account
}

// LockAccounts takes FOR UPDATE locks on all given accounts in sorted ID
// order (deadlock prevention) and returns them keyed by ID. The locks live
// until the enclosing transaction commits or rolls back.
func (l *Ledger) LockAccounts(ctx context.Context, tx Transaction, ids ...string) (map[string]*domain.Account, error) {
	unique := make(map[string]bool, len(ids))

	var sorted []string
	for _, id := range ids {
		if !unique[id] {
			unique[id] = true
			sorted = append(sorted, id)
		}
	}

	sort.Strings(sorted)

	accounts, err := l.accountRepo.GetByIDsForUpdate(ctx, tx, sorted)
	if err != nil {
		return nil, err
	}

	if len(accounts) != len(sorted) {
		return nil, domain.ErrAccountNotFound
	}

	byID := make(map[string]*domain.Account, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}

	return byID, nil
}

// Reserve asserts, under the lock already held on account, that its
// balance covers amount. It does not mutate the balance; it returns the
// capability a subsequent Debit must present.
func (l *Ledger) Reserve(account *domain.Account, amount decimal.Decimal) (*Reservation, error) {
	if err := account.ValidateDebit(amount); err != nil {
		return nil, err
	}

	return &Reservation{account: account, amount: amount}, nil
}

// Debit applies a debit covered by res and records one ledger entry. It
// fails closed if the reservation does not cover the amount.
func (l *Ledger) Debit(ctx context.Context, tx Transaction, res *Reservation, amount decimal.Decimal, spec EntrySpec) (*domain.LedgerEntry, error) {
	if res == nil || res.amount.LessThan(amount) {
		return nil, domain.ErrReservationRequired
	}

	account := res.account
	if account.Balance.LessThan(amount) {
		// The reservation was consumed by an earlier debit in this unit
		// of work; never go negative.
		return nil, domain.ErrInsufficientFunds
	}

	res.amount = res.amount.Sub(amount)

	return l.apply(ctx, tx, account, amount.Neg(), spec)
}

// Credit applies a credit to an account locked in this unit of work and
// records one ledger entry.
func (l *Ledger) Credit(ctx context.Context, tx Transaction, account *domain.Account, amount decimal.Decimal, spec EntrySpec) (*domain.LedgerEntry, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	return l.apply(ctx, tx, account, amount, spec)
}

func (l *Ledger) apply(ctx context.Context, tx Transaction, account *domain.Account, signed decimal.Decimal, spec EntrySpec) (*domain.LedgerEntry, error) {
	now := time.Now().UTC()

	newBalance := account.Balance.Add(signed)

	status := spec.Status
	if status == "" {
		status = domain.EntryStatusCompleted
	}

	entry := &domain.LedgerEntry{
		ID:              l.idGen.Generate(),
		AccountID:       account.ID,
		Amount:          signed,
		Category:        spec.Category,
		Description:     spec.Description,
		Status:          status,
		Metadata:        spec.Metadata,
		PreviousBalance: account.Balance,
		CurrentBalance:  newBalance,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := l.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("create ledger entry: %w", err)
	}

	if err := l.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}

	account.Balance = newBalance
	account.Version++
	account.UpdatedAt = now

	return entry, nil
}

// SettleEntries transitions every pending entry referencing a workflow to
// a terminal status. Entries are append-only otherwise.
func (l *Ledger) SettleEntries(ctx context.Context, tx Transaction, refKey, refValue string, status domain.EntryStatus) error {
	entries, err := l.entryRepo.GetByReference(ctx, tx, refKey, refValue)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	for _, entry := range entries {
		if !entry.Status.CanTransitionTo(status) {
			continue
		}

		if err := l.entryRepo.UpdateStatus(ctx, tx, entry.ID, status, now); err != nil {
			return err
		}
	}

	return nil
}
