package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/infrastructure/metrics"
)

const accountCacheTTL = 5 * time.Minute

func accountCacheKey(id string) string {
	return "account:" + id
}

// AccountUseCase handles account lifecycle and the two direct balance
// operations that bypass escrow: admin deposits and membership fees.
type AccountUseCase struct {
	txManager   TransactionManager
	ledger      *Ledger
	partition   *PartitionManager
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
	cache       Cache
	metrics     *metrics.Metrics
}

// NewAccountUseCase creates an AccountUseCase. Cache may be nil.
func NewAccountUseCase(
	txManager TransactionManager,
	ledger *Ledger,
	partition *PartitionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	cache Cache,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:   txManager,
		ledger:      ledger,
		partition:   partition,
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		idGen:       idGen,
		cache:       cache,
		metrics:     metrics,
	}
}

// CreateAccountInput describes a new user account.
type CreateAccountInput struct {
	Name           string
	SellerVerified bool
}

// CreateAccount opens a user account with zero balance, zero points and
// the full welcome-rate allowance.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidationFailed)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:              uc.idGen.Generate(),
		Kind:            domain.AccountKindUser,
		Name:            input.Name,
		Balance:         decimal.Zero,
		Points:          0,
		WelcomeUsesLeft: WelcomeMaxUses,
		SellerVerified:  input.SellerVerified,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if uc.auditRepo != nil {
		_ = uc.auditRepo.Create(ctx, &domain.AuditLog{
			ID:           uc.idGen.Generate(),
			UserID:       account.ID,
			Action:       string(domain.AuditActionAccountCreate),
			ResourceType: "account",
			ResourceID:   account.ID,
			AfterState:   domain.MarshalState(account),
			Status:       string(domain.AuditStatusSuccess),
			CreatedAt:    now,
		})
	}

	return account, nil
}

// GetAccount retrieves an account, serving from cache when possible.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, accountCacheKey(id)); err == nil && data != nil {
			var account domain.Account
			if err := json.Unmarshal(data, &account); err == nil {
				if uc.metrics != nil {
					uc.metrics.CacheHits.Inc()
				}
				return &account, nil
			}
		}
		if uc.metrics != nil {
			uc.metrics.CacheMisses.Inc()
		}
	}

	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(account); err == nil {
			if err := uc.cache.Set(ctx, accountCacheKey(id), data, accountCacheTTL); err != nil {
				log.Warn().Err(err).Str("account_id", id).Msg("failed to cache account")
			}
		}
	}

	return account, nil
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// Deposit credits an account from outside the system. This is the one
// operation that grows the sum of balances, so it is admin-only and
// fully audited.
func (uc *AccountUseCase) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, note string) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var account *domain.Account

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		accounts, err := uc.ledger.LockAccounts(txCtx, tx, accountID)
		if err != nil {
			return err
		}

		account = accounts[accountID]

		if _, err := uc.ledger.Credit(txCtx, tx, account, amount, EntrySpec{
			Category:    domain.EntryCategoryDeposit,
			Description: note,
			Metadata:    map[string]any{"account_id": accountID},
		}); err != nil {
			return err
		}

		now := time.Now().UTC()

		if uc.outboxRepo != nil {
			event := &domain.OutboxEvent{
				ID:            uc.idGen.Generate(),
				AggregateID:   accountID,
				AggregateType: domain.AggregateTypeAccount,
				EventType:     domain.EventTypeDepositApplied,
				Payload: map[string]any{
					"account_id": accountID,
					"amount":     amount.String(),
				},
				CreatedAt: now,
			}
			if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
				return err
			}
		}

		return uc.audit(txCtx, tx, domain.AuditActionDeposit, accountID, map[string]any{
			"amount": amount.String(),
			"note":   note,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, accountID)

	return account, nil
}

// CaptureMembershipFee debits the member for the periodic fee and splits
// the full amount across the reserve pools. The fee is pure system
// revenue, there is no counterparty to pay out.
func (uc *AccountUseCase) CaptureMembershipFee(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var account *domain.Account

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		lockIDs := append([]string{accountID}, domain.SystemAccountIDs...)

		accounts, err := uc.ledger.LockAccounts(txCtx, tx, lockIDs...)
		if err != nil {
			return err
		}

		account = accounts[accountID]
		meta := map[string]any{"account_id": accountID}

		res, err := uc.ledger.Reserve(account, amount)
		if err != nil {
			return err
		}

		if _, err := uc.ledger.Debit(txCtx, tx, res, amount, EntrySpec{
			Category:    domain.EntryCategoryMembershipFee,
			Description: "membership fee",
			Metadata:    meta,
		}); err != nil {
			return err
		}

		split, err := uc.partition.SplitFee(amount)
		if err != nil {
			return err
		}

		if err := uc.partition.ApplySplit(txCtx, tx, accounts, split, EntrySpec{
			Category:    domain.EntryCategoryMembershipFee,
			Description: "membership fee share",
			Metadata:    meta,
		}); err != nil {
			return err
		}

		now := time.Now().UTC()

		if uc.outboxRepo != nil {
			event := &domain.OutboxEvent{
				ID:            uc.idGen.Generate(),
				AggregateID:   accountID,
				AggregateType: domain.AggregateTypeAccount,
				EventType:     domain.EventTypeFeeCaptured,
				Payload: map[string]any{
					"account_id": accountID,
					"amount":     amount.String(),
				},
				CreatedAt: now,
			}
			if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
				return err
			}
		}

		return uc.audit(txCtx, tx, domain.AuditActionMembershipFee, accountID, map[string]any{
			"amount": amount.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.MembershipFeesCaptured.Inc()
	}

	uc.invalidate(ctx, accountID)

	return account, nil
}

// ListEntries returns the account's ledger history.
func (uc *AccountUseCase) ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.ledger.entryRepo.ListByAccount(ctx, accountID, limit, offset)
}

func (uc *AccountUseCase) invalidate(ctx context.Context, accountID string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, accountCacheKey(accountID)); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Msg("failed to invalidate account cache")
	}
}

func (uc *AccountUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceID string, after any) error {
	if uc.auditRepo == nil {
		return nil
	}

	userID := "system"
	if user, ok := domain.UserFromContext(ctx); ok {
		userID = user.ID
	}

	return uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       userID,
		Action:       string(action),
		ResourceType: "account",
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}
