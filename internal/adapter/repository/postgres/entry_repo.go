package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `id, account_id, amount, category, description, status, metadata, previous_balance, current_balance, created_at, updated_at`

// Create creates a ledger entry within a transaction.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID,
		entry.AccountID,
		decimalToNumeric(entry.Amount),
		string(entry.Category),
		entry.Description,
		string(entry.Status),
		metadata,
		decimalToNumeric(entry.PreviousBalance),
		decimalToNumeric(entry.CurrentBalance),
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)

	return err
}

// UpdateStatus transitions a pending entry to a terminal status.
func (r *EntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE ledger_entries SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), timeToPgTimestamptz(updatedAt))

	return err
}

// GetByReference retrieves entries whose metadata carries the given
// key/value pair, locked for update.
func (r *EntryRepository) GetByReference(ctx context.Context, tx usecase.Transaction, refKey, refValue string) ([]*domain.LedgerEntry, error) {
	pgxTx := tx.(*Tx).PgxTx()

	rows, err := pgxTx.Query(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE metadata->>$1 = $2
		ORDER BY created_at FOR UPDATE`, refKey, refValue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListByAccount lists entries for an account, newest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+` FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry

	for rows.Next() {
		var (
			entry     domain.LedgerEntry
			amount    pgtype.Numeric
			category  string
			status    string
			metadata  []byte
			prev      pgtype.Numeric
			current   pgtype.Numeric
			createdAt pgtype.Timestamptz
			updatedAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&amount,
			&category,
			&entry.Description,
			&status,
			&metadata,
			&prev,
			&current,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		entry.Amount = numericToDecimal(amount)
		entry.Category = domain.EntryCategory(category)
		entry.Status = domain.EntryStatus(status)
		entry.PreviousBalance = numericToDecimal(prev)
		entry.CurrentBalance = numericToDecimal(current)
		entry.CreatedAt = createdAt.Time
		entry.UpdatedAt = updatedAt.Time

		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, err
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
