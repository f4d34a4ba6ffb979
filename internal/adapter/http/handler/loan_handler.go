package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loopmarket/treasury/internal/adapter/http/dto"
	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// LoanService defines the behavior needed by LoanHandler.
type LoanService interface {
	RequestLoan(ctx context.Context, input usecase.RequestLoanInput) (*domain.Loan, error)
	Approve(ctx context.Context, loanID string) (*domain.Loan, error)
	Reject(ctx context.Context, loanID, reason string) (*domain.Loan, error)
	Cancel(ctx context.Context, loanID string) (*domain.Loan, error)
	PayInstallment(ctx context.Context, loanID, payerID string) (*domain.Loan, error)
	GetLoan(ctx context.Context, id string) (*domain.Loan, error)
	ListInstallments(ctx context.Context, loanID string) ([]*domain.Installment, error)
	ListLoansByBorrower(ctx context.Context, borrowerID string, limit, offset int) ([]*domain.Loan, error)
}

// LoanHandler handles loan-related HTTP requests.
type LoanHandler struct {
	loanUC LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanUC LoanService) *LoanHandler {
	return &LoanHandler{loanUC: loanUC}
}

// Request files a loan application for the caller.
func (h *LoanHandler) Request(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.RequestLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanUC.RequestLoan(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to request loan", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoanFromDomain(loan))
}

// Get retrieves a loan by ID.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loan, err := h.loanUC.GetLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// ListMine lists the caller's loans.
func (h *LoanHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	loans, err := h.loanUC.ListLoansByBorrower(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list loans", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoansFromDomain(loans))
}

// Installments lists the repayment schedule of a loan.
func (h *LoanHandler) Installments(w http.ResponseWriter, r *http.Request) {
	installments, err := h.loanUC.ListInstallments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list installments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.InstallmentsFromDomain(installments))
}

// Approve disburses a pending loan. Admin only.
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	loan, err := h.loanUC.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to approve loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// Reject declines a pending loan with a reason. Admin only.
func (h *LoanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req dto.RejectLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanUC.Reject(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reject loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// Cancel withdraws a pending loan application.
func (h *LoanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	loan, err := h.loanUC.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel loan", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// Pay settles the next pending installment from the caller's balance.
func (h *LoanHandler) Pay(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	loan, err := h.loanUC.PayInstallment(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to pay installment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}
