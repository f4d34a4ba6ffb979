package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/adapter/http/dto"
	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal, note string) (*domain.Account, error)
	CaptureMembershipFee(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error)
}

// PointsService defines the behavior needed for point conversion.
type PointsService interface {
	Convert(ctx context.Context, accountID string) (*usecase.ConversionResult, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
	pointsUC  PointsService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService, pointsUC PointsService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, pointsUC: pointsUC}
}

// Create opens a new user account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create account", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accountUC.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// ListEntries lists the ledger entries touching an account.
func (h *AccountHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.accountUC.ListEntries(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Deposit credits an account by administrative decision.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.Deposit(r.Context(), id, req.Amount, req.Note)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to deposit", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// MembershipFee charges the periodic membership fee and splits it across
// the reserve pools.
func (h *AccountHandler) MembershipFee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.MembershipFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.CaptureMembershipFee(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to capture membership fee", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ConvertPoints exchanges the caller's whole point lots for currency.
func (h *AccountHandler) ConvertPoints(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	result, err := h.pointsUC.Convert(r.Context(), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to convert points", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ConversionFromResult(result))
}
