package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
)

// Transaction is the capability object every domain call inside a unit of
// work must be threaded through. Repositories refuse to touch storage
// without one for any mutating operation.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// AccountRepository defines data access for user and system pool accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	CreateTx(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdatePoints(ctx context.Context, tx Transaction, id string, points int64, updatedAt time.Time) error
	UpdateWelcomeUses(ctx context.Context, tx Transaction, id string, usesLeft int, updatedAt time.Time) error
	UpdateScore(ctx context.Context, tx Transaction, id string, score int, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.EntryStatus, updatedAt time.Time) error
	GetByReference(ctx context.Context, tx Transaction, refKey, refValue string) ([]*domain.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
}

// OrderRepository defines data access for escrow orders.
type OrderRepository interface {
	Create(ctx context.Context, tx Transaction, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Order, error)
	Update(ctx context.Context, tx Transaction, order *domain.Order) error
	CountSellerOrdersSince(ctx context.Context, sellerID string, since time.Time) (int, error)
	SumCompletedFees(ctx context.Context) (decimal.Decimal, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Order, error)
}

// LoanRepository defines data access for loans and installments.
type LoanRepository interface {
	Create(ctx context.Context, tx Transaction, loan *domain.Loan, installments []*domain.Installment) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Loan, error)
	Update(ctx context.Context, tx Transaction, loan *domain.Loan) error
	NextPendingInstallment(ctx context.Context, tx Transaction, loanID string) (*domain.Installment, error)
	UpdateInstallment(ctx context.Context, tx Transaction, installment *domain.Installment) error
	ListInstallments(ctx context.Context, loanID string) ([]*domain.Installment, error)
	PaidTotal(ctx context.Context, tx Transaction, loanID string) (decimal.Decimal, error)
	SumOutstanding(ctx context.Context, tx Transaction) (decimal.Decimal, error)
	SumOriginationFees(ctx context.Context) (decimal.Decimal, error)
	ListByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]*domain.Loan, error)
}

// ListingRepository defines data access for listings and variant stock.
type ListingRepository interface {
	CreateListing(ctx context.Context, listing *domain.Listing) error
	CreateVariant(ctx context.Context, variant *domain.ListingVariant) error
	GetListing(ctx context.Context, id string) (*domain.Listing, error)
	GetVariant(ctx context.Context, id string) (*domain.ListingVariant, error)
	GetVariantForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ListingVariant, error)
	UpdateVariantStock(ctx context.Context, tx Transaction, id string, stock int, updatedAt time.Time) error
}

// LedgerRepository defines ledger-wide conservation queries.
type LedgerRepository interface {
	// SumBalances returns the total of all account balances.
	SumBalances(ctx context.Context) (decimal.Decimal, error)
	// SumEntries returns the signed net of all entries not in the given
	// excluded status.
	SumEntries(ctx context.Context, excludeStatus domain.EntryStatus) (decimal.Decimal, error)
	// SumPoolFeeCredits returns all completed fee-category credits into
	// the reserve pool accounts.
	SumPoolFeeCredits(ctx context.Context) (decimal.Decimal, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// CreditOffer is the eligibility service's verdict on a loan request.
type CreditOffer struct {
	Approved  bool
	Rate      decimal.Decimal
	Guarantee string
	Reason    string
}

// CreditOfferService is the external eligibility and limit collaborator.
type CreditOfferService interface {
	GetCreditOffer(ctx context.Context, accountID string, amount decimal.Decimal, installments int) (*CreditOffer, error)
}

// ShippingQuoteService supplies the delivery fee estimate for courier
// orders. The core consumes the fee, it never computes one.
type ShippingQuoteService interface {
	Quote(ctx context.Context, sellerID, buyerID string) (decimal.Decimal, error)
}
