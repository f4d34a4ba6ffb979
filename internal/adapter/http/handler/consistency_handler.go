package handler

import (
	"context"
	"net/http"

	"github.com/loopmarket/treasury/internal/usecase"
)

// ConsistencyService defines the behavior needed by ConsistencyHandler.
type ConsistencyService interface {
	Check(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// ConsistencyHandler exposes the ledger cross-check. Admin only.
type ConsistencyHandler struct {
	consistencyUC ConsistencyService
}

// NewConsistencyHandler creates a new ConsistencyHandler.
func NewConsistencyHandler(consistencyUC ConsistencyService) *ConsistencyHandler {
	return &ConsistencyHandler{consistencyUC: consistencyUC}
}

// Check recomputes the balance and fee cross-checks and reports any drift.
func (h *ConsistencyHandler) Check(w http.ResponseWriter, r *http.Request) {
	report, err := h.consistencyUC.Check(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to run consistency check", err.Error())
		return
	}

	status := http.StatusOK
	if !report.Consistent() {
		status = http.StatusConflict
	}

	writeJSON(w, status, report)
}
