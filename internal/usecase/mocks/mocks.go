package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc            func(ctx context.Context, account *domain.Account) error
	CreateTxFunc          func(ctx context.Context, tx usecase.Transaction, account *domain.Account) error
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error)
	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalanceFunc     func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	UpdatePointsFunc      func(ctx context.Context, tx usecase.Transaction, id string, points int64, updatedAt time.Time) error
	UpdateWelcomeUsesFunc func(ctx context.Context, tx usecase.Transaction, id string, usesLeft int, updatedAt time.Time) error
	UpdateScoreFunc       func(ctx context.Context, tx usecase.Transaction, id string, score int, updatedAt time.Time) error
	ListFunc              func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

// Seed installs an account directly into the backing map.
func (m *MockAccountRepository) Seed(account *domain.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.ID] = account
	return nil
}

func (m *MockAccountRepository) CreateTx(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if m.CreateTxFunc != nil {
		return m.CreateTxFunc(ctx, tx, account)
	}
	return m.Create(ctx, account)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, id := range ids {
		if acc, ok := m.accounts[id]; ok {
			accounts = append(accounts, acc)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Balance = balance
		acc.Version++
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) UpdatePoints(ctx context.Context, tx usecase.Transaction, id string, points int64, updatedAt time.Time) error {
	if m.UpdatePointsFunc != nil {
		return m.UpdatePointsFunc(ctx, tx, id, points, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Points = points
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) UpdateWelcomeUses(ctx context.Context, tx usecase.Transaction, id string, usesLeft int, updatedAt time.Time) error {
	if m.UpdateWelcomeUsesFunc != nil {
		return m.UpdateWelcomeUsesFunc(ctx, tx, id, usesLeft, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.WelcomeUsesLeft = usesLeft
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) UpdateScore(ctx context.Context, tx usecase.Transaction, id string, score int, updatedAt time.Time) error {
	if m.UpdateScoreFunc != nil {
		return m.UpdateScoreFunc(ctx, tx, id, score, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc, ok := m.accounts[id]; ok {
		acc.Score = score
		acc.UpdatedAt = updatedAt
	}
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var accounts []*domain.Account
	for _, acc := range m.accounts {
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// MockEntryRepository is a mock implementation of EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries []*domain.LedgerEntry

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	UpdateStatusFunc   func(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, updatedAt time.Time) error
	GetByReferenceFunc func(ctx context.Context, tx usecase.Transaction, refKey, refValue string) ([]*domain.LedgerEntry, error)
	ListByAccountFunc  func(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

// Entries returns a snapshot of everything written so far.
func (m *MockEntryRepository) Entries() []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.EntryStatus, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			e.Status = status
			return nil
		}
	}
	return nil
}

func (m *MockEntryRepository) GetByReference(ctx context.Context, tx usecase.Transaction, refKey, refValue string) ([]*domain.LedgerEntry, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, tx, refKey, refValue)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, e := range m.entries {
		if v, ok := e.Metadata[refKey]; ok && fmt.Sprint(v) == refValue {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order

	CreateFunc                 func(ctx context.Context, tx usecase.Transaction, order *domain.Order) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.Order, error)
	GetByIDForUpdateFunc       func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Order, error)
	UpdateFunc                 func(ctx context.Context, tx usecase.Transaction, order *domain.Order) error
	CountSellerOrdersSinceFunc func(ctx context.Context, sellerID string, since time.Time) (int, error)
	SumCompletedFeesFunc       func(ctx context.Context) (decimal.Decimal, error)
	ListByAccountFunc          func(ctx context.Context, accountID string, limit, offset int) ([]*domain.Order, error)
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.Order),
	}
}

func (m *MockOrderRepository) Seed(order *domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func (m *MockOrderRepository) Create(ctx context.Context, tx usecase.Transaction, order *domain.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Order, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockOrderRepository) Update(ctx context.Context, tx usecase.Transaction, order *domain.Order) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *MockOrderRepository) CountSellerOrdersSince(ctx context.Context, sellerID string, since time.Time) (int, error) {
	if m.CountSellerOrdersSinceFunc != nil {
		return m.CountSellerOrdersSinceFunc(ctx, sellerID, since)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, o := range m.orders {
		if o.SellerID == sellerID && o.Status != domain.OrderStatusCancelled && !o.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MockOrderRepository) SumCompletedFees(ctx context.Context) (decimal.Decimal, error) {
	if m.SumCompletedFeesFunc != nil {
		return m.SumCompletedFeesFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusCompleted {
			sum = sum.Add(o.Fee)
		}
	}
	return sum, nil
}

func (m *MockOrderRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Order, error) {
	if m.ListByAccountFunc != nil {
		return m.ListByAccountFunc(ctx, accountID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.BuyerID == accountID || o.SellerID == accountID {
			out = append(out, o)
		}
	}
	return out, nil
}

// MockLoanRepository is a mock implementation of LoanRepository.
type MockLoanRepository struct {
	mu           sync.RWMutex
	loans        map[string]*domain.Loan
	installments map[string][]*domain.Installment

	CreateFunc                 func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan, installments []*domain.Installment) error
	GetByIDFunc                func(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdateFunc       func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error)
	UpdateFunc                 func(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error
	NextPendingInstallmentFunc func(ctx context.Context, tx usecase.Transaction, loanID string) (*domain.Installment, error)
	UpdateInstallmentFunc      func(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error
	ListInstallmentsFunc       func(ctx context.Context, loanID string) ([]*domain.Installment, error)
	PaidTotalFunc              func(ctx context.Context, tx usecase.Transaction, loanID string) (decimal.Decimal, error)
	SumOutstandingFunc         func(ctx context.Context, tx usecase.Transaction) (decimal.Decimal, error)
	SumOriginationFeesFunc     func(ctx context.Context) (decimal.Decimal, error)
	ListByBorrowerFunc         func(ctx context.Context, borrowerID string, limit, offset int) ([]*domain.Loan, error)
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{
		loans:        make(map[string]*domain.Loan),
		installments: make(map[string][]*domain.Installment),
	}
}

func (m *MockLoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan, installments []*domain.Installment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, loan, installments)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	m.installments[loan.ID] = installments
	return nil
}

func (m *MockLoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.loans[id]; ok {
		return l, nil
	}
	return nil, domain.ErrLoanNotFound
}

func (m *MockLoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockLoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, loan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = loan
	return nil
}

func (m *MockLoanRepository) NextPendingInstallment(ctx context.Context, tx usecase.Transaction, loanID string) (*domain.Installment, error) {
	if m.NextPendingInstallmentFunc != nil {
		return m.NextPendingInstallmentFunc(ctx, tx, loanID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.installments[loanID]
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	for _, inst := range list {
		if inst.Status == domain.InstallmentStatusPending {
			return inst, nil
		}
	}
	return nil, domain.ErrInstallmentNotFound
}

func (m *MockLoanRepository) UpdateInstallment(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	if m.UpdateInstallmentFunc != nil {
		return m.UpdateInstallmentFunc(ctx, tx, installment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, inst := range m.installments[installment.LoanID] {
		if inst.ID == installment.ID {
			m.installments[installment.LoanID][i] = installment
			return nil
		}
	}
	return domain.ErrInstallmentNotFound
}

func (m *MockLoanRepository) ListInstallments(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	if m.ListInstallmentsFunc != nil {
		return m.ListInstallmentsFunc(ctx, loanID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.installments[loanID], nil
}

func (m *MockLoanRepository) PaidTotal(ctx context.Context, tx usecase.Transaction, loanID string) (decimal.Decimal, error) {
	if m.PaidTotalFunc != nil {
		return m.PaidTotalFunc(ctx, tx, loanID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, inst := range m.installments[loanID] {
		sum = sum.Add(inst.PaidAmount)
	}
	return sum, nil
}

func (m *MockLoanRepository) SumOutstanding(ctx context.Context, tx usecase.Transaction) (decimal.Decimal, error) {
	if m.SumOutstandingFunc != nil {
		return m.SumOutstandingFunc(ctx, tx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, l := range m.loans {
		if l.Status == domain.LoanStatusApproved || l.Status == domain.LoanStatusPaymentPending {
			sum = sum.Add(l.Outstanding)
		}
	}
	return sum, nil
}

func (m *MockLoanRepository) SumOriginationFees(ctx context.Context) (decimal.Decimal, error) {
	if m.SumOriginationFeesFunc != nil {
		return m.SumOriginationFeesFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, l := range m.loans {
		if l.Status != domain.LoanStatusPending && l.Status != domain.LoanStatusRejected {
			sum = sum.Add(l.OriginationFee)
		}
	}
	return sum, nil
}

func (m *MockLoanRepository) ListByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]*domain.Loan, error) {
	if m.ListByBorrowerFunc != nil {
		return m.ListByBorrowerFunc(ctx, borrowerID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Loan
	for _, l := range m.loans {
		if l.BorrowerID == borrowerID {
			out = append(out, l)
		}
	}
	return out, nil
}

// MockListingRepository is a mock implementation of ListingRepository.
type MockListingRepository struct {
	mu       sync.RWMutex
	listings map[string]*domain.Listing
	variants map[string]*domain.ListingVariant

	GetVariantForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.ListingVariant, error)
	UpdateVariantStockFunc  func(ctx context.Context, tx usecase.Transaction, id string, stock int, updatedAt time.Time) error
}

func NewMockListingRepository() *MockListingRepository {
	return &MockListingRepository{
		listings: make(map[string]*domain.Listing),
		variants: make(map[string]*domain.ListingVariant),
	}
}

func (m *MockListingRepository) SeedListing(listing *domain.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[listing.ID] = listing
}

func (m *MockListingRepository) SeedVariant(variant *domain.ListingVariant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[variant.ID] = variant
}

func (m *MockListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[listing.ID] = listing
	return nil
}

func (m *MockListingRepository) CreateVariant(ctx context.Context, variant *domain.ListingVariant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[variant.ID] = variant
	return nil
}

func (m *MockListingRepository) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.listings[id]; ok {
		return l, nil
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingRepository) GetVariant(ctx context.Context, id string) (*domain.ListingVariant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.variants[id]; ok {
		return v, nil
	}
	return nil, domain.ErrListingNotFound
}

func (m *MockListingRepository) GetVariantForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ListingVariant, error) {
	if m.GetVariantForUpdateFunc != nil {
		return m.GetVariantForUpdateFunc(ctx, tx, id)
	}
	return m.GetVariant(ctx, id)
}

func (m *MockListingRepository) UpdateVariantStock(ctx context.Context, tx usecase.Transaction, id string, stock int, updatedAt time.Time) error {
	if m.UpdateVariantStockFunc != nil {
		return m.UpdateVariantStockFunc(ctx, tx, id, stock, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.variants[id]; ok {
		v.Stock = stock
		v.UpdatedAt = updatedAt
	}
	return nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	SumBalancesFunc       func(ctx context.Context) (decimal.Decimal, error)
	SumEntriesFunc        func(ctx context.Context, excludeStatus domain.EntryStatus) (decimal.Decimal, error)
	SumPoolFeeCreditsFunc func(ctx context.Context) (decimal.Decimal, error)
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{}
}

func (m *MockLedgerRepository) SumBalances(ctx context.Context) (decimal.Decimal, error) {
	if m.SumBalancesFunc != nil {
		return m.SumBalancesFunc(ctx)
	}
	return decimal.Zero, nil
}

func (m *MockLedgerRepository) SumEntries(ctx context.Context, excludeStatus domain.EntryStatus) (decimal.Decimal, error) {
	if m.SumEntriesFunc != nil {
		return m.SumEntriesFunc(ctx, excludeStatus)
	}
	return decimal.Zero, nil
}

func (m *MockLedgerRepository) SumPoolFeeCredits(ctx context.Context) (decimal.Decimal, error) {
	if m.SumPoolFeeCreditsFunc != nil {
		return m.SumPoolFeeCreditsFunc(ctx)
	}
	return decimal.Zero, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.OutboxEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Logs() []*domain.AuditLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.AuditLog, len(m.logs))
	copy(out, m.logs)
	return out
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.AuditLog
	for _, l := range m.logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%06d", m.counter)
}

// MockCache is a mock implementation of Cache.
type MockCache struct {
	mu    sync.RWMutex
	store map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{
		store: make(map[string][]byte),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.store[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, key)
	return nil
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu    sync.Mutex
	store map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		store: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.store[key]; ok {
		return true, existing, nil
	}
	m.store[key] = response
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = response
	return nil
}

// MockCreditOfferService is a mock implementation of CreditOfferService.
// The default verdict approves at a ten percent rate.
type MockCreditOfferService struct {
	GetCreditOfferFunc func(ctx context.Context, accountID string, amount decimal.Decimal, installments int) (*usecase.CreditOffer, error)
}

func NewMockCreditOfferService() *MockCreditOfferService {
	return &MockCreditOfferService{}
}

func (m *MockCreditOfferService) GetCreditOffer(ctx context.Context, accountID string, amount decimal.Decimal, installments int) (*usecase.CreditOffer, error) {
	if m.GetCreditOfferFunc != nil {
		return m.GetCreditOfferFunc(ctx, accountID, amount, installments)
	}
	return &usecase.CreditOffer{
		Approved: true,
		Rate:     decimal.NewFromFloat(0.10),
	}, nil
}

// MockShippingQuoteService is a mock implementation of ShippingQuoteService.
type MockShippingQuoteService struct {
	QuoteFunc func(ctx context.Context, sellerID, buyerID string) (decimal.Decimal, error)
}

func NewMockShippingQuoteService() *MockShippingQuoteService {
	return &MockShippingQuoteService{}
}

func (m *MockShippingQuoteService) Quote(ctx context.Context, sellerID, buyerID string) (decimal.Decimal, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, sellerID, buyerID)
	}
	return decimal.NewFromInt(10), nil
}
