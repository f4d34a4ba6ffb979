package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
	"github.com/loopmarket/treasury/internal/usecase/mocks"
)

func newTestLedger() (*usecase.Ledger, *mocks.MockAccountRepository, *mocks.MockEntryRepository) {
	accRepo := mocks.NewMockAccountRepository()
	entryRepo := mocks.NewMockEntryRepository()
	ledger := usecase.NewLedger(accRepo, entryRepo, mocks.NewMockIDGenerator())

	return ledger, accRepo, entryRepo
}

func userAccount(id, balance string) *domain.Account {
	return &domain.Account{
		ID:      id,
		Kind:    domain.AccountKindUser,
		Balance: decimal.RequireFromString(balance),
	}
}

func systemAccount(id, balance string) *domain.Account {
	return &domain.Account{
		ID:      id,
		Kind:    domain.AccountKindSystem,
		Balance: decimal.RequireFromString(balance),
	}
}

func TestLedger_LockAccounts_SortsAndDeduplicates(t *testing.T) {
	ledger, accRepo, _ := newTestLedger()

	var requested []string
	accRepo.GetByIDsForUpdateFunc = func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
		requested = ids
		accounts := make([]*domain.Account, len(ids))
		for i, id := range ids {
			accounts[i] = userAccount(id, "0")
		}
		return accounts, nil
	}

	accounts, err := ledger.LockAccounts(context.Background(), &mocks.MockTransaction{}, "b-acc", "a-acc", "b-acc", "c-acc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a-acc", "b-acc", "c-acc"}
	if len(requested) != len(want) {
		t.Fatalf("expected %d lock requests, got %d", len(want), len(requested))
	}
	for i, id := range want {
		if requested[i] != id {
			t.Errorf("lock order position %d: expected %s, got %s", i, id, requested[i])
		}
	}

	if len(accounts) != 3 {
		t.Errorf("expected 3 accounts keyed by ID, got %d", len(accounts))
	}
}

func TestLedger_LockAccounts_MissingAccount(t *testing.T) {
	ledger, accRepo, _ := newTestLedger()
	accRepo.Seed(userAccount("acc-1", "100"))

	_, err := ledger.LockAccounts(context.Background(), &mocks.MockTransaction{}, "acc-1", "acc-missing")

	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedger_Reserve(t *testing.T) {
	ledger, _, _ := newTestLedger()

	tests := []struct {
		name      string
		account   *domain.Account
		amount    string
		errorType error
	}{
		{"covered by balance", userAccount("acc-1", "100.00"), "100.00", nil},
		{"user account short", userAccount("acc-1", "99.99"), "100.00", domain.ErrInsufficientFunds},
		{"pool account short", systemAccount(domain.SystemAccountMain, "99.99"), "100.00", domain.ErrInsufficientLiquidity},
		{"zero amount", userAccount("acc-1", "100.00"), "0", domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ledger.Reserve(tt.account, decimal.RequireFromString(tt.amount))

			if tt.errorType != nil {
				if !errors.Is(err, tt.errorType) {
					t.Errorf("expected error %v, got %v", tt.errorType, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Account() != tt.account {
				t.Error("reservation should carry the reserved account")
			}
		})
	}
}

func TestLedger_Debit(t *testing.T) {
	ledger, _, entryRepo := newTestLedger()
	tx := &mocks.MockTransaction{}

	account := userAccount("acc-1", "100.00")

	res, err := ledger.Reserve(account, decimal.RequireFromString("60.00"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	entry, err := ledger.Debit(context.Background(), tx, res, decimal.RequireFromString("60.00"), usecase.EntrySpec{
		Category:    domain.EntryCategoryPurchase,
		Description: "test debit",
	})
	if err != nil {
		t.Fatalf("debit: %v", err)
	}

	if !entry.Amount.Equal(decimal.RequireFromString("-60.00")) {
		t.Errorf("entry amount: expected -60.00, got %s", entry.Amount)
	}
	if !entry.PreviousBalance.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("previous balance: expected 100.00, got %s", entry.PreviousBalance)
	}
	if !entry.CurrentBalance.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("current balance: expected 40.00, got %s", entry.CurrentBalance)
	}
	if entry.Status != domain.EntryStatusCompleted {
		t.Errorf("expected default status completed, got %s", entry.Status)
	}

	if !account.Balance.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("account balance: expected 40.00, got %s", account.Balance)
	}
	if account.Version != 1 {
		t.Errorf("expected version bump to 1, got %d", account.Version)
	}

	if len(entryRepo.Entries()) != 1 {
		t.Errorf("expected 1 persisted entry, got %d", len(entryRepo.Entries()))
	}
}

func TestLedger_Debit_RequiresReservation(t *testing.T) {
	ledger, _, _ := newTestLedger()
	tx := &mocks.MockTransaction{}

	_, err := ledger.Debit(context.Background(), tx, nil, decimal.RequireFromString("10.00"), usecase.EntrySpec{})
	if !errors.Is(err, domain.ErrReservationRequired) {
		t.Errorf("nil reservation: expected ErrReservationRequired, got %v", err)
	}

	account := userAccount("acc-1", "100.00")

	res, err := ledger.Reserve(account, decimal.RequireFromString("50.00"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	_, err = ledger.Debit(context.Background(), tx, res, decimal.RequireFromString("50.01"), usecase.EntrySpec{})
	if !errors.Is(err, domain.ErrReservationRequired) {
		t.Errorf("over-reservation debit: expected ErrReservationRequired, got %v", err)
	}
}

func TestLedger_Debit_ReservationIsConsumed(t *testing.T) {
	ledger, _, _ := newTestLedger()
	tx := &mocks.MockTransaction{}

	account := userAccount("acc-1", "100.00")

	res, err := ledger.Reserve(account, decimal.RequireFromString("100.00"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if _, err := ledger.Debit(context.Background(), tx, res, decimal.RequireFromString("60.00"), usecase.EntrySpec{Category: domain.EntryCategoryFee}); err != nil {
		t.Fatalf("first debit: %v", err)
	}

	// 40.00 of the reservation remains, so 60.00 must be refused.
	_, err = ledger.Debit(context.Background(), tx, res, decimal.RequireFromString("60.00"), usecase.EntrySpec{Category: domain.EntryCategoryFee})
	if !errors.Is(err, domain.ErrReservationRequired) {
		t.Errorf("expected ErrReservationRequired, got %v", err)
	}

	if _, err := ledger.Debit(context.Background(), tx, res, decimal.RequireFromString("40.00"), usecase.EntrySpec{Category: domain.EntryCategoryFee}); err != nil {
		t.Fatalf("remaining reservation debit: %v", err)
	}

	if !account.Balance.IsZero() {
		t.Errorf("expected zero balance, got %s", account.Balance)
	}
}

func TestLedger_Credit(t *testing.T) {
	ledger, _, _ := newTestLedger()
	tx := &mocks.MockTransaction{}

	account := userAccount("acc-1", "10.00")

	entry, err := ledger.Credit(context.Background(), tx, account, decimal.RequireFromString("5.50"), usecase.EntrySpec{
		Category: domain.EntryCategorySale,
		Status:   domain.EntryStatusPending,
	})
	if err != nil {
		t.Fatalf("credit: %v", err)
	}

	if !entry.Amount.Equal(decimal.RequireFromString("5.50")) {
		t.Errorf("entry amount: expected 5.50, got %s", entry.Amount)
	}
	if entry.Status != domain.EntryStatusPending {
		t.Errorf("expected pending status to be honored, got %s", entry.Status)
	}
	if !account.Balance.Equal(decimal.RequireFromString("15.50")) {
		t.Errorf("account balance: expected 15.50, got %s", account.Balance)
	}

	_, err = ledger.Credit(context.Background(), tx, account, decimal.Zero, usecase.EntrySpec{})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("zero credit: expected ErrInvalidAmount, got %v", err)
	}
}

func TestLedger_SettleEntries(t *testing.T) {
	ledger, _, entryRepo := newTestLedger()
	tx := &mocks.MockTransaction{}
	ctx := context.Background()

	account := userAccount("acc-1", "100.00")
	meta := map[string]any{"order_id": "ord-1"}

	res, err := ledger.Reserve(account, decimal.RequireFromString("60.00"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if _, err := ledger.Debit(ctx, tx, res, decimal.RequireFromString("60.00"), usecase.EntrySpec{
		Category: domain.EntryCategoryPurchase,
		Status:   domain.EntryStatusPending,
		Metadata: meta,
	}); err != nil {
		t.Fatalf("debit: %v", err)
	}

	if _, err := ledger.Credit(ctx, tx, account, decimal.RequireFromString("1.00"), usecase.EntrySpec{
		Category: domain.EntryCategoryFee,
		Metadata: meta,
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if _, err := ledger.Credit(ctx, tx, account, decimal.RequireFromString("1.00"), usecase.EntrySpec{
		Category: domain.EntryCategoryFee,
		Status:   domain.EntryStatusPending,
		Metadata: map[string]any{"order_id": "ord-other"},
	}); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if err := ledger.SettleEntries(ctx, tx, "order_id", "ord-1", domain.EntryStatusCompleted); err != nil {
		t.Fatalf("settle: %v", err)
	}

	for _, entry := range entryRepo.Entries() {
		switch {
		case entry.Metadata["order_id"] == "ord-1":
			if entry.Status != domain.EntryStatusCompleted {
				t.Errorf("entry %s: expected completed, got %s", entry.ID, entry.Status)
			}
		default:
			if entry.Status != domain.EntryStatusPending {
				t.Errorf("unrelated entry %s: expected pending, got %s", entry.ID, entry.Status)
			}
		}
	}
}
