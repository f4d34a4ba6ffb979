package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// LoanRepository implements usecase.LoanRepository.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

const loanColumns = `id, borrower_id, principal, rate, total_repayment, origination_fee,
	disbursed_amount, outstanding, installment_count, status, due_date, created_at, updated_at, approved_at`

const installmentColumns = `id, loan_id, number, expected_amount, paid_amount, due_date, status, paid_at`

// Create persists the loan and its full installment schedule.
func (r *LoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan, installments []*domain.Installment) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		loan.ID,
		loan.BorrowerID,
		decimalToNumeric(loan.Principal),
		decimalToNumeric(loan.Rate),
		decimalToNumeric(loan.TotalRepayment),
		decimalToNumeric(loan.OriginationFee),
		decimalToNumeric(loan.DisbursedAmount),
		decimalToNumeric(loan.Outstanding),
		loan.InstallmentCount,
		string(loan.Status),
		timeToPgTimestamptz(loan.DueDate),
		timeToPgTimestamptz(loan.CreatedAt),
		timeToPgTimestamptz(loan.UpdatedAt),
		timePtrToPgTimestamptz(loan.ApprovedAt),
	)
	if err != nil {
		return err
	}

	for _, inst := range installments {
		_, err = pgxTx.Exec(ctx, `
			INSERT INTO loan_installments (`+installmentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			inst.ID,
			inst.LoanID,
			inst.Number,
			decimalToNumeric(inst.ExpectedAmount),
			decimalToNumeric(inst.PaidAmount),
			timeToPgTimestamptz(inst.DueDate),
			string(inst.Status),
			timePtrToPgTimestamptz(inst.PaidAt),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a loan by ID.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+loanColumns+` FROM loans WHERE id = $1`, id)

	return scanLoan(row)
}

// GetByIDForUpdate retrieves a loan with a FOR UPDATE lock.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id)

	return scanLoan(row)
}

// Update persists the mutable loan fields.
func (r *LoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE loans SET
			outstanding = $2,
			status = $3,
			updated_at = $4,
			approved_at = $5
		WHERE id = $1`,
		loan.ID,
		decimalToNumeric(loan.Outstanding),
		string(loan.Status),
		timeToPgTimestamptz(loan.UpdatedAt),
		timePtrToPgTimestamptz(loan.ApprovedAt),
	)

	return err
}

// NextPendingInstallment fetches the lowest-numbered pending installment,
// locked for update.
func (r *LoanRepository) NextPendingInstallment(ctx context.Context, tx usecase.Transaction, loanID string) (*domain.Installment, error) {
	pgxTx := tx.(*Tx).PgxTx()

	row := pgxTx.QueryRow(ctx, `
		SELECT `+installmentColumns+` FROM loan_installments
		WHERE loan_id = $1 AND status = $2
		ORDER BY number LIMIT 1 FOR UPDATE`,
		loanID, string(domain.InstallmentStatusPending))

	return scanInstallment(row)
}

// UpdateInstallment persists an installment's payment state.
func (r *LoanRepository) UpdateInstallment(ctx context.Context, tx usecase.Transaction, installment *domain.Installment) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE loan_installments SET paid_amount = $2, status = $3, paid_at = $4 WHERE id = $1`,
		installment.ID,
		decimalToNumeric(installment.PaidAmount),
		string(installment.Status),
		timePtrToPgTimestamptz(installment.PaidAt),
	)

	return err
}

// ListInstallments lists a loan's schedule in payment order.
func (r *LoanRepository) ListInstallments(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+installmentColumns+` FROM loan_installments
		WHERE loan_id = $1 ORDER BY number`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var installments []*domain.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}

	return installments, rows.Err()
}

// PaidTotal sums everything paid against a loan so far.
func (r *LoanRepository) PaidTotal(ctx context.Context, tx usecase.Transaction, loanID string) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var sum pgtype.Numeric

	err := pgxTx.QueryRow(ctx, `
		SELECT COALESCE(SUM(paid_amount), 0) FROM loan_installments WHERE loan_id = $1`,
		loanID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// SumOutstanding sums the outstanding repayment of all active loans.
func (r *LoanRepository) SumOutstanding(ctx context.Context, tx usecase.Transaction) (decimal.Decimal, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var sum pgtype.Numeric

	err := pgxTx.QueryRow(ctx, `
		SELECT COALESCE(SUM(outstanding), 0) FROM loans WHERE status = ANY($1)`,
		[]string{string(domain.LoanStatusApproved), string(domain.LoanStatusPaymentPending)}).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// SumOriginationFees sums the origination fees of all disbursed loans.
func (r *LoanRepository) SumOriginationFees(ctx context.Context) (decimal.Decimal, error) {
	var sum pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(origination_fee), 0) FROM loans WHERE status <> ALL($1)`,
		[]string{string(domain.LoanStatusPending), string(domain.LoanStatusRejected)}).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// ListByBorrower lists loans for a borrower, newest first.
func (r *LoanRepository) ListByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]*domain.Loan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE borrower_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, borrowerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan       domain.Loan
		principal  pgtype.Numeric
		rate       pgtype.Numeric
		total      pgtype.Numeric
		fee        pgtype.Numeric
		disbursed  pgtype.Numeric
		outstand   pgtype.Numeric
		status     string
		dueDate    pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
		approvedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&loan.ID,
		&loan.BorrowerID,
		&principal,
		&rate,
		&total,
		&fee,
		&disbursed,
		&outstand,
		&loan.InstallmentCount,
		&status,
		&dueDate,
		&createdAt,
		&updatedAt,
		&approvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}

		return nil, err
	}

	loan.Principal = numericToDecimal(principal)
	loan.Rate = numericToDecimal(rate)
	loan.TotalRepayment = numericToDecimal(total)
	loan.OriginationFee = numericToDecimal(fee)
	loan.DisbursedAmount = numericToDecimal(disbursed)
	loan.Outstanding = numericToDecimal(outstand)
	loan.Status = domain.LoanStatus(status)
	loan.DueDate = dueDate.Time
	loan.CreatedAt = createdAt.Time
	loan.UpdatedAt = updatedAt.Time
	loan.ApprovedAt = pgTimestamptzToTimePtr(approvedAt)

	return &loan, nil
}

func scanInstallment(row pgx.Row) (*domain.Installment, error) {
	var (
		inst     domain.Installment
		expected pgtype.Numeric
		paid     pgtype.Numeric
		status   string
		dueDate  pgtype.Timestamptz
		paidAt   pgtype.Timestamptz
	)

	err := row.Scan(
		&inst.ID,
		&inst.LoanID,
		&inst.Number,
		&expected,
		&paid,
		&dueDate,
		&status,
		&paidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstallmentNotFound
		}

		return nil, err
	}

	inst.ExpectedAmount = numericToDecimal(expected)
	inst.PaidAmount = numericToDecimal(paid)
	inst.DueDate = dueDate.Time
	inst.Status = domain.InstallmentStatus(status)
	inst.PaidAt = pgTimestamptzToTimePtr(paidAt)

	return &inst, nil
}
