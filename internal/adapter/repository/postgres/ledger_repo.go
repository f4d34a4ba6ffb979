package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
)

// LedgerRepository implements usecase.LedgerRepository with the
// ledger-wide aggregate queries the consistency sweep needs.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// SumBalances returns the total of all account balances.
func (r *LedgerRepository) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(balance), 0) FROM accounts`).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// SumEntries returns the signed net of all entries not in the excluded
// status. Credit amounts are stored positive and debits negative, so the
// plain sum is the net flow.
func (r *LedgerRepository) SumEntries(ctx context.Context, excludeStatus domain.EntryStatus) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE status <> $1`,
		string(excludeStatus)).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// SumPoolFeeCredits returns all completed fee-category credits into the
// reserve pool accounts.
func (r *LedgerRepository) SumPoolFeeCredits(ctx context.Context) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM ledger_entries
		WHERE category = $1 AND status = $2 AND amount > 0 AND account_id = ANY($3)`,
		string(domain.EntryCategoryFee),
		string(domain.EntryStatusCompleted),
		domain.SystemAccountIDs).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}
