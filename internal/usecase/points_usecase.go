package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/infrastructure/metrics"
)

// PointsUseCase converts loyalty points into currency. Conversion is
// funded by the main pool, so its liquidity bounds how many lots can be
// cashed out at once.
type PointsUseCase struct {
	txManager   TransactionManager
	ledger      *Ledger
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	metrics     *metrics.Metrics
}

// NewPointsUseCase creates a PointsUseCase.
func NewPointsUseCase(
	txManager TransactionManager,
	ledger *Ledger,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *PointsUseCase {
	return &PointsUseCase{
		txManager:   txManager,
		ledger:      ledger,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		metrics:     metrics,
	}
}

// ConversionResult reports what a conversion actually moved.
type ConversionResult struct {
	Lots            int64
	PointsConsumed  int64
	AmountCredited  decimal.Decimal
	PointsRemaining int64
}

// Convert exchanges the account's whole point lots for currency drawn
// from the main pool. Sub-lot balances do not convert; an account below
// one lot is rejected outright and nothing moves. If the main pool
// cannot cover the payout the conversion fails with a liquidity error
// and the points stay untouched.
func (uc *PointsUseCase) Convert(ctx context.Context, accountID string) (*ConversionResult, error) {
	var result *ConversionResult

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		accounts, err := uc.ledger.LockAccounts(txCtx, tx, accountID, domain.SystemAccountMain)
		if err != nil {
			return err
		}

		account := accounts[accountID]
		pool := accounts[domain.SystemAccountMain]

		lots, consumed, value := domain.ConvertiblePoints(account.Points)
		if lots == 0 {
			return fmt.Errorf("%w: %d points held, %d required per lot",
				domain.ErrInsufficientPoints, account.Points, domain.PointLotSize)
		}

		res, err := uc.ledger.Reserve(pool, value)
		if err != nil {
			return err
		}

		meta := map[string]any{
			"account_id": accountID,
			"lots":       lots,
			"points":     consumed,
		}

		if _, err := uc.ledger.Debit(txCtx, tx, res, value, EntrySpec{
			Category:    domain.EntryCategoryPointConversion,
			Description: fmt.Sprintf("payout of %d point lots", lots),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		if _, err := uc.ledger.Credit(txCtx, tx, account, value, EntrySpec{
			Category:    domain.EntryCategoryPointConversion,
			Description: fmt.Sprintf("converted %d points", consumed),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		account.Points -= consumed

		if err := uc.accountRepo.UpdatePoints(txCtx, tx, accountID, account.Points, now); err != nil {
			return err
		}

		result = &ConversionResult{
			Lots:            lots,
			PointsConsumed:  consumed,
			AmountCredited:  value,
			PointsRemaining: account.Points,
		}

		if uc.outboxRepo != nil {
			event := &domain.OutboxEvent{
				ID:            uc.idGen.Generate(),
				AggregateID:   accountID,
				AggregateType: domain.AggregateTypeAccount,
				EventType:     domain.EventTypePointsConverted,
				Payload: map[string]any{
					"account_id": accountID,
					"lots":       lots,
					"points":     consumed,
					"amount":     value.String(),
				},
				CreatedAt: now,
			}
			if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
				return err
			}
		}

		if uc.auditRepo != nil {
			userID := accountID
			if user, ok := domain.UserFromContext(txCtx); ok {
				userID = user.ID
			}

			if err := uc.auditRepo.CreateTx(txCtx, tx, &domain.AuditLog{
				ID:           uc.idGen.Generate(),
				UserID:       userID,
				Action:       string(domain.AuditActionPointsConvert),
				ResourceType: "account",
				ResourceID:   accountID,
				AfterState:   domain.MarshalState(result),
				Status:       string(domain.AuditStatusSuccess),
				CreatedAt:    now,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PointsConversions.Inc()
	}

	return result, nil
}
