package usecase

import (
	"context"
	"fmt"
)

// runInTx is the unit-of-work boundary: it begins a transaction, runs fn
// with the tx handle every ledger and repository call must be threaded
// through, and commits only if fn returns nil. Any error rolls the whole
// sequence back, so a workflow either applies all of its mutations or none
// of them. Workflows must not open a second unit of work inside fn.
func runInTx(ctx context.Context, txManager TransactionManager, fn func(txCtx context.Context, tx Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := txManager.Begin(txCtx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(txCtx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
