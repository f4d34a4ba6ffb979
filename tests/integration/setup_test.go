package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/adapter/external"
	"github.com/loopmarket/treasury/internal/adapter/repository/postgres"
	"github.com/loopmarket/treasury/internal/usecase"
	"github.com/loopmarket/treasury/tests/testutil"
)

// env wires every use case over the real postgres repositories, the way
// cmd/server does, minus the HTTP surface.
type env struct {
	db          *testutil.TestDB
	accounts    *usecase.AccountUseCase
	orders      *usecase.OrderUseCase
	loans       *usecase.LoanUseCase
	points      *usecase.PointsUseCase
	consistency *usecase.ConsistencyUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)
	db.TruncateAll(ctx)

	pool := db.Pool
	txManager := postgres.NewTxManager(pool)
	accountRepo := postgres.NewAccountRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	listingRepo := postgres.NewListingRepository(pool)
	loanRepo := postgres.NewLoanRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	idGen := postgres.NewULIDGenerator()

	ledger := usecase.NewLedger(accountRepo, entryRepo, idGen)
	partition := usecase.NewPartitionManager(ledger)

	shipping := external.NewFlatShippingQuoter(decimal.NewFromInt(10))
	creditBureau := external.NewStaticCreditBureau(
		decimal.NewFromInt(5000), decimal.NewFromFloat(0.10))

	// Always-open business hours keep the tests clock-independent.
	policy := usecase.OrderPolicy{BusinessHoursStart: 0, BusinessHoursEnd: 24}

	return &env{
		db: db,
		accounts: usecase.NewAccountUseCase(
			txManager, ledger, partition, accountRepo,
			outboxRepo, auditRepo, idGen, nil, nil),
		orders: usecase.NewOrderUseCase(
			txManager, ledger, partition, orderRepo, listingRepo,
			outboxRepo, auditRepo, idGen, shipping, nil, policy),
		loans: usecase.NewLoanUseCase(
			txManager, ledger, partition, loanRepo,
			outboxRepo, auditRepo, idGen, creditBureau, nil),
		points: usecase.NewPointsUseCase(
			txManager, ledger, accountRepo,
			outboxRepo, auditRepo, idGen, nil),
		consistency: usecase.NewConsistencyUseCase(
			ledgerRepo, orderRepo, loanRepo, nil),
	}
}

func mustEqual(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}
