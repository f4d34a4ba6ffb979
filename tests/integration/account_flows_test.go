package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

func TestDepositAndMembershipFee(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	account, err := e.accounts.CreateAccount(ctx, usecase.CreateAccountInput{Name: "member"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	if _, err := e.accounts.Deposit(ctx, account.ID, decimal.NewFromInt(100), "initial top-up"); err != nil {
		t.Fatalf("Deposit() error = %v", err)
	}
	mustEqual(t, e.db.Balance(ctx, account.ID), "100", "balance after deposit")

	updated, err := e.accounts.CaptureMembershipFee(ctx, account.ID, decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("CaptureMembershipFee() error = %v", err)
	}

	mustEqual(t, updated.Balance, "90", "member balance after fee")
	mustEqual(t, e.db.Balance(ctx, domain.SystemAccountProfit), "8.00", "profit pool")
	mustEqual(t, e.db.Balance(ctx, domain.SystemAccountTax), "0.50", "tax pool")
	mustEqual(t, e.db.Balance(ctx, domain.SystemAccountOperational), "0.50", "operational pool")
	mustEqual(t, e.db.Balance(ctx, domain.SystemAccountOwner), "0.50", "owner pool")
	mustEqual(t, e.db.Balance(ctx, domain.SystemAccountInvestment), "0.50", "investment pool")

	// Everything entered through a deposit entry, so conservation holds.
	report, err := e.consistency.Check(ctx)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !report.Consistent() {
		t.Errorf("consistency report not clean: balance drift %s, fee drift %s",
			report.BalanceDrift, report.FeeDrift)
	}
}

func TestMembershipFeeRequiresFunds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	account, err := e.accounts.CreateAccount(ctx, usecase.CreateAccountInput{Name: "broke member"})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	_, err = e.accounts.CaptureMembershipFee(ctx, account.ID, decimal.NewFromInt(10))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("CaptureMembershipFee() error = %v, want %v", err, domain.ErrInsufficientFunds)
	}

	mustEqual(t, e.db.Balance(ctx, account.ID), "0", "member balance")
	mustEqual(t, e.db.Balance(ctx, domain.SystemAccountProfit), "0", "profit pool")
}

func TestPointsConversionDrawsFromMainPool(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	member := e.db.CreateUserAccount(ctx, "collector", decimal.Zero, false)
	e.db.SetBalance(ctx, domain.SystemAccountMain, decimal.NewFromInt(100))

	if _, err := e.db.Pool.Exec(ctx,
		`UPDATE accounts SET points = 2500 WHERE id = $1`, member.ID); err != nil {
		t.Fatalf("failed to set points: %v", err)
	}

	result, err := e.points.Convert(ctx, member.ID)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if result.Lots != 2 {
		t.Errorf("lots = %d, want 2", result.Lots)
	}
	if result.PointsConsumed != 2000 {
		t.Errorf("points consumed = %d, want 2000", result.PointsConsumed)
	}
	if result.PointsRemaining != 500 {
		t.Errorf("points remaining = %d, want 500", result.PointsRemaining)
	}

	mustEqual(t, result.AmountCredited, "20", "amount credited")
	mustEqual(t, e.db.Balance(ctx, member.ID), "20", "member balance")
	mustEqual(t, e.db.Balance(ctx, domain.SystemAccountMain), "80", "main pool")
}

func TestPointsConversionRejectsSubLotBalance(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	member := e.db.CreateUserAccount(ctx, "collector", decimal.Zero, false)
	e.db.SetBalance(ctx, domain.SystemAccountMain, decimal.NewFromInt(100))

	if _, err := e.db.Pool.Exec(ctx,
		`UPDATE accounts SET points = 950 WHERE id = $1`, member.ID); err != nil {
		t.Fatalf("failed to set points: %v", err)
	}

	_, err := e.points.Convert(ctx, member.ID)
	if !errors.Is(err, domain.ErrInsufficientPoints) {
		t.Errorf("Convert() error = %v, want %v", err, domain.ErrInsufficientPoints)
	}

	var points int64
	if err := e.db.Pool.QueryRow(ctx,
		`SELECT points FROM accounts WHERE id = $1`, member.ID).Scan(&points); err != nil {
		t.Fatalf("failed to read points: %v", err)
	}
	if points != 950 {
		t.Errorf("points = %d, want 950", points)
	}
}
