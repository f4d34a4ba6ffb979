package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/infrastructure/metrics"
)

// metaLoanID is the metadata key linking a ledger entry to its loan.
const metaLoanID = "loan_id"

// LoanUseCase manages loan origination, disbursement and installment
// repayment. Disbursement pulls from the main pool; repayments return
// principal to the main pool and interest to the profit pool.
type LoanUseCase struct {
	txManager    TransactionManager
	ledger       *Ledger
	partition    *PartitionManager
	loanRepo     LoanRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	idGen        IDGenerator
	creditOffers CreditOfferService
	metrics      *metrics.Metrics
}

// NewLoanUseCase creates a LoanUseCase.
func NewLoanUseCase(
	txManager TransactionManager,
	ledger *Ledger,
	partition *PartitionManager,
	loanRepo LoanRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	creditOffers CreditOfferService,
	metrics *metrics.Metrics,
) *LoanUseCase {
	return &LoanUseCase{
		txManager:    txManager,
		ledger:       ledger,
		partition:    partition,
		loanRepo:     loanRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		idGen:        idGen,
		creditOffers: creditOffers,
		metrics:      metrics,
	}
}

// RequestLoanInput describes a loan application.
type RequestLoanInput struct {
	BorrowerID   string
	Amount       decimal.Decimal
	Installments int
	DueDate      time.Time
}

// RequestLoan validates the application against the external credit offer,
// creates the loan with its installment schedule and, when the liquidity
// guard allows, disburses it immediately. Otherwise the loan stays PENDING
// for manual approval.
func (uc *LoanUseCase) RequestLoan(ctx context.Context, input RequestLoanInput) (*domain.Loan, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	if input.Installments <= 0 {
		return nil, fmt.Errorf("%w: installment count must be positive", domain.ErrValidationFailed)
	}

	offer, err := uc.creditOffers.GetCreditOffer(ctx, input.BorrowerID, input.Amount, input.Installments)
	if err != nil {
		return nil, fmt.Errorf("credit offer: %w", err)
	}

	if !offer.Approved {
		return nil, fmt.Errorf("%w: %s", domain.ErrCreditOfferDeclined, offer.Reason)
	}

	if err := domain.ValidateRate(offer.Rate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	amount := input.Amount.Round(2)
	totalRepayment := domain.NewTotalRepayment(amount, offer.Rate)
	originationFee := amount.Mul(LoanOriginationFeeRate).Round(2)

	loan := &domain.Loan{
		ID:               uc.idGen.Generate(),
		BorrowerID:       input.BorrowerID,
		Principal:        amount,
		Rate:             offer.Rate,
		TotalRepayment:   totalRepayment,
		OriginationFee:   originationFee,
		DisbursedAmount:  amount.Sub(originationFee),
		Outstanding:      totalRepayment,
		InstallmentCount: input.Installments,
		Status:           domain.LoanStatusPending,
		DueDate:          input.DueDate,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	installments := uc.buildSchedule(loan)

	err = runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		if err := uc.loanRepo.Create(txCtx, tx, loan, installments); err != nil {
			return err
		}

		eligible, err := uc.passesLiquidityGuard(txCtx, tx, loan.Principal)
		if err != nil {
			return err
		}

		if eligible {
			if err := uc.disburse(txCtx, tx, loan); err != nil {
				return err
			}
		}

		if err := uc.emitLoanEvent(txCtx, tx, loan, domain.EventTypeLoanRequested); err != nil {
			return err
		}

		return uc.audit(txCtx, tx, domain.AuditActionLoanRequest, loan.ID, loan)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LoansRequested.Inc()
		if loan.Status == domain.LoanStatusApproved {
			uc.metrics.LoansApproved.Inc()
		}
	}

	return loan, nil
}

// Approve disburses a pending loan after manual review.
func (uc *LoanUseCase) Approve(ctx context.Context, loanID string) (*domain.Loan, error) {
	var loan *domain.Loan

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		loan, err = uc.loanRepo.GetByIDForUpdate(txCtx, tx, loanID)
		if err != nil {
			return err
		}

		if !loan.Status.CanTransitionTo(domain.LoanStatusApproved) {
			return domain.ErrInvalidStateTransition
		}

		if err := uc.disburse(txCtx, tx, loan); err != nil {
			return err
		}

		if err := uc.emitLoanEvent(txCtx, tx, loan, domain.EventTypeLoanApproved); err != nil {
			return err
		}

		return uc.audit(txCtx, tx, domain.AuditActionLoanApprove, loan.ID, loan)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LoansApproved.Inc()
	}

	return loan, nil
}

// Reject terminates a pending loan without money movement.
func (uc *LoanUseCase) Reject(ctx context.Context, loanID, reason string) (*domain.Loan, error) {
	return uc.terminate(ctx, loanID, domain.LoanStatusRejected, domain.AuditActionLoanReject, domain.EventTypeLoanRejected, reason)
}

// Cancel is the admin-forced terminal state. Any outstanding balance is a
// write-off decided outside the ledger; the loan itself stops accepting
// repayments.
func (uc *LoanUseCase) Cancel(ctx context.Context, loanID string) (*domain.Loan, error) {
	return uc.terminate(ctx, loanID, domain.LoanStatusCancelled, domain.AuditActionLoanCancel, "", "")
}

// PayInstallment debits the borrower for the next pending installment and
// splits the payment into principal, returned to the main pool, and
// interest, credited to the profit pool, per the loan's own ratio.
func (uc *LoanUseCase) PayInstallment(ctx context.Context, loanID, payerID string) (*domain.Loan, error) {
	var loan *domain.Loan

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		loan, err = uc.loanRepo.GetByIDForUpdate(txCtx, tx, loanID)
		if err != nil {
			return err
		}

		if loan.BorrowerID != payerID {
			return fmt.Errorf("%w: only the borrower can repay", domain.ErrValidationFailed)
		}

		if loan.Status != domain.LoanStatusApproved && loan.Status != domain.LoanStatusPaymentPending {
			if loan.Status == domain.LoanStatusPaid {
				return domain.ErrLoanAlreadySettled
			}

			return domain.ErrInvalidStateTransition
		}

		installment, err := uc.loanRepo.NextPendingInstallment(txCtx, tx, loanID)
		if err != nil {
			return err
		}

		amount := installment.ExpectedAmount

		accounts, err := uc.ledger.LockAccounts(txCtx, tx,
			payerID, domain.SystemAccountMain, domain.SystemAccountProfit)
		if err != nil {
			return err
		}

		res, err := uc.ledger.Reserve(accounts[payerID], amount)
		if err != nil {
			return err
		}

		meta := map[string]any{metaLoanID: loan.ID, "installment": installment.Number}

		if _, err := uc.ledger.Debit(txCtx, tx, res, amount, EntrySpec{
			Category:    domain.EntryCategoryLoanRepayment,
			Description: fmt.Sprintf("installment %d of loan %s", installment.Number, loan.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}

		principalPart, interestPart := loan.RepaymentSplit(amount)

		if principalPart.IsPositive() {
			if _, err := uc.ledger.Credit(txCtx, tx, accounts[domain.SystemAccountMain], principalPart, EntrySpec{
				Category:    domain.EntryCategoryLoanRepayment,
				Description: fmt.Sprintf("principal returned for loan %s", loan.ID),
				Metadata:    meta,
			}); err != nil {
				return err
			}
		}

		if interestPart.IsPositive() {
			if _, err := uc.ledger.Credit(txCtx, tx, accounts[domain.SystemAccountProfit], interestPart, EntrySpec{
				Category:    domain.EntryCategoryLoanRepayment,
				Description: fmt.Sprintf("interest earned on loan %s", loan.ID),
				Metadata:    meta,
			}); err != nil {
				return err
			}
		}

		now := time.Now().UTC()

		installment.PaidAmount = amount
		installment.Status = domain.InstallmentStatusPaid
		installment.PaidAt = &now

		if err := uc.loanRepo.UpdateInstallment(txCtx, tx, installment); err != nil {
			return err
		}

		paidTotal, err := uc.loanRepo.PaidTotal(txCtx, tx, loanID)
		if err != nil {
			return err
		}

		loan.Outstanding = loan.TotalRepayment.Sub(paidTotal)
		if loan.Outstanding.IsNegative() {
			loan.Outstanding = decimal.Zero
		}

		eventType := domain.EventTypeLoanRepaid

		if loan.Settled(paidTotal) {
			loan.Status = domain.LoanStatusPaid
			eventType = domain.EventTypeLoanSettled
		} else if loan.Status == domain.LoanStatusApproved {
			loan.Status = domain.LoanStatusPaymentPending
		}

		loan.UpdatedAt = now

		if err := uc.loanRepo.Update(txCtx, tx, loan); err != nil {
			return err
		}

		if err := uc.emitLoanEvent(txCtx, tx, loan, eventType); err != nil {
			return err
		}

		return uc.audit(txCtx, tx, domain.AuditActionLoanRepay, loan.ID, installment)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.InstallmentsPaid.Inc()
	}

	return loan, nil
}

// GetLoan retrieves a loan by ID.
func (uc *LoanUseCase) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	return uc.loanRepo.GetByID(ctx, id)
}

// ListInstallments lists a loan's schedule.
func (uc *LoanUseCase) ListInstallments(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	return uc.loanRepo.ListInstallments(ctx, loanID)
}

// ListLoansByBorrower lists loans for a borrower.
func (uc *LoanUseCase) ListLoansByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]*domain.Loan, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.loanRepo.ListByBorrower(ctx, borrowerID, limit, offset)
}

// passesLiquidityGuard checks the loan amount against the available share
// of the main pool minus everything currently loaned out. Reads under the
// active transaction so concurrent disbursements serialize correctly.
func (uc *LoanUseCase) passesLiquidityGuard(ctx context.Context, tx Transaction, amount decimal.Decimal) (bool, error) {
	pool, err := uc.ledger.accountRepo.GetByIDForUpdate(ctx, tx, domain.SystemAccountMain)
	if err != nil {
		return false, err
	}

	outstanding, err := uc.loanRepo.SumOutstanding(ctx, tx)
	if err != nil {
		return false, err
	}

	available := pool.Balance.Mul(LoanLiquidityFactor).Sub(outstanding)

	return amount.LessThanOrEqual(available), nil
}

// disburse moves the principal out of the main pool: the borrower gets
// the amount net of the origination fee, which is routed through the
// reserve partition.
func (uc *LoanUseCase) disburse(ctx context.Context, tx Transaction, loan *domain.Loan) error {
	lockIDs := append([]string{loan.BorrowerID}, domain.SystemAccountIDs...)

	accounts, err := uc.ledger.LockAccounts(ctx, tx, lockIDs...)
	if err != nil {
		return err
	}

	mainPool := accounts[domain.SystemAccountMain]
	meta := map[string]any{metaLoanID: loan.ID}

	res, err := uc.ledger.Reserve(mainPool, loan.Principal)
	if err != nil {
		return err
	}

	if _, err := uc.ledger.Debit(ctx, tx, res, loan.Principal, EntrySpec{
		Category:    domain.EntryCategoryLoanDisbursed,
		Description: fmt.Sprintf("disbursement of loan %s", loan.ID),
		Metadata:    meta,
	}); err != nil {
		return err
	}

	if _, err := uc.ledger.Credit(ctx, tx, accounts[loan.BorrowerID], loan.DisbursedAmount, EntrySpec{
		Category:    domain.EntryCategoryLoanDisbursed,
		Description: fmt.Sprintf("loan %s disbursed net of origination fee", loan.ID),
		Metadata:    meta,
	}); err != nil {
		return err
	}

	if loan.OriginationFee.IsPositive() {
		split, err := uc.partition.SplitFee(loan.OriginationFee)
		if err != nil {
			return err
		}

		if err := uc.partition.ApplySplit(ctx, tx, accounts, split, EntrySpec{
			Category:    domain.EntryCategoryFee,
			Description: fmt.Sprintf("origination fee share for loan %s", loan.ID),
			Metadata:    meta,
		}); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	loan.Status = domain.LoanStatusApproved
	loan.ApprovedAt = &now
	loan.UpdatedAt = now

	return uc.loanRepo.Update(ctx, tx, loan)
}

func (uc *LoanUseCase) terminate(ctx context.Context, loanID string, status domain.LoanStatus, action domain.AuditAction, eventType, reason string) (*domain.Loan, error) {
	var loan *domain.Loan

	err := runInTx(ctx, uc.txManager, func(txCtx context.Context, tx Transaction) error {
		var err error

		loan, err = uc.loanRepo.GetByIDForUpdate(txCtx, tx, loanID)
		if err != nil {
			return err
		}

		if !loan.Status.CanTransitionTo(status) {
			return domain.ErrInvalidStateTransition
		}

		loan.Status = status
		loan.UpdatedAt = time.Now().UTC()

		if err := uc.loanRepo.Update(txCtx, tx, loan); err != nil {
			return err
		}

		if eventType != "" {
			if err := uc.emitLoanEvent(txCtx, tx, loan, eventType); err != nil {
				return err
			}
		}

		return uc.audit(txCtx, tx, action, loan.ID, map[string]any{
			"status": string(loan.Status),
			"reason": reason,
		})
	})
	if err != nil {
		return nil, err
	}

	return loan, nil
}

// buildSchedule splits the total repayment into equal installments, the
// last one absorbing the rounding remainder.
func (uc *LoanUseCase) buildSchedule(loan *domain.Loan) []*domain.Installment {
	amounts := domain.ScheduleInstallments(loan.TotalRepayment, loan.InstallmentCount)

	interval := loan.DueDate.Sub(loan.CreatedAt)
	if interval <= 0 {
		interval = time.Duration(loan.InstallmentCount) * 30 * 24 * time.Hour
	}

	step := interval / time.Duration(loan.InstallmentCount)

	installments := make([]*domain.Installment, len(amounts))
	for i, amount := range amounts {
		installments[i] = &domain.Installment{
			ID:             uc.idGen.Generate(),
			LoanID:         loan.ID,
			Number:         i + 1,
			ExpectedAmount: amount,
			PaidAmount:     decimal.Zero,
			DueDate:        loan.CreatedAt.Add(step * time.Duration(i+1)),
			Status:         domain.InstallmentStatusPending,
		}
	}

	return installments
}

func (uc *LoanUseCase) emitLoanEvent(ctx context.Context, tx Transaction, loan *domain.Loan, eventType string) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     eventType,
		Payload: map[string]any{
			"loan_id":     loan.ID,
			"borrower_id": loan.BorrowerID,
			"status":      string(loan.Status),
			"principal":   loan.Principal.String(),
			"outstanding": loan.Outstanding.String(),
		},
		CreatedAt: time.Now().UTC(),
	})
}

func (uc *LoanUseCase) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceID string, after any) error {
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
		ResourceType: "loan",
		ResourceID:   resourceID,
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    time.Now().UTC(),
	})
}
