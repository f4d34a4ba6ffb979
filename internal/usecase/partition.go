package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
)

// PartitionManager applies a fee split across the five reserve pools
// using the ledger primitive, inside the caller's unit of work. Callers
// invoke it exactly once per fee event; calling it twice double-applies.
type PartitionManager struct {
	ledger *Ledger
}

// NewPartitionManager creates a PartitionManager.
func NewPartitionManager(ledger *Ledger) *PartitionManager {
	return &PartitionManager{ledger: ledger}
}

// SplitFee partitions gross per the fixed pool percentages. Pure, no side
// effects.
func (m *PartitionManager) SplitFee(gross decimal.Decimal) (domain.FeeSplit, error) {
	return domain.SplitFee(gross)
}

// ApplySplit credits each pool account by its share. The pool accounts
// must already be locked in this unit of work (pass the map returned by
// Ledger.LockAccounts covering domain.SystemAccountIDs).
func (m *PartitionManager) ApplySplit(ctx context.Context, tx Transaction, pools map[string]*domain.Account, split domain.FeeSplit, spec EntrySpec) error {
	shares := split.Shares()

	for _, poolID := range domain.SystemAccountIDs {
		share, ok := shares[poolID]
		if !ok {
			continue
		}

		pool, ok := pools[poolID]
		if !ok {
			return fmt.Errorf("%w: pool %s not locked", domain.ErrValidationFailed, poolID)
		}

		if _, err := m.ledger.Credit(ctx, tx, pool, share, spec); err != nil {
			return fmt.Errorf("credit pool %s: %w", poolID, err)
		}
	}

	return nil
}
