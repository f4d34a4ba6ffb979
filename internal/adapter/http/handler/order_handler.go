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

// OrderService defines the behavior needed by OrderHandler.
type OrderService interface {
	CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.Order, error)
	ConfirmPayment(ctx context.Context, orderID, buyerID string) (*domain.Order, error)
	MarkReadyForShipping(ctx context.Context, orderID, sellerID string) (*domain.Order, error)
	AdvanceDelivery(ctx context.Context, orderID, courierID string, next domain.DeliveryStatus, code string) (*domain.Order, error)
	Complete(ctx context.Context, orderID, buyerID, code string) (*domain.Order, error)
	Cancel(ctx context.Context, orderID, callerID string) (*domain.Order, error)
	OpenDispute(ctx context.Context, orderID, partyID, reason string) (*domain.Order, error)
	ResolveDispute(ctx context.Context, input usecase.ResolveDisputeInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Order, error)
}

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	orderUC OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderUC OrderService) *OrderHandler {
	return &OrderHandler{orderUC: orderUC}
}

// Create opens a new order in WAITING_PAYMENT.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.orderUC.CreateOrder(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create order", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.OrderFromDomain(order))
}

// Get retrieves an order by ID.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	order, err := h.orderUC.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get order", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// ListMine lists the caller's orders, as buyer or seller.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	orders, err := h.orderUC.ListOrdersByAccount(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list orders", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrdersFromDomain(orders))
}

// ConfirmPayment charges the buyer and freezes the funds in escrow.
func (h *OrderHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	order, err := h.orderUC.ConfirmPayment(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to confirm payment", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// Ready marks the order ready for shipping.
func (h *OrderHandler) Ready(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	order, err := h.orderUC.MarkReadyForShipping(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to mark ready", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// AdvanceDelivery moves a courier order to the next delivery sub-state.
func (h *OrderHandler) AdvanceDelivery(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.AdvanceDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.orderUC.AdvanceDelivery(r.Context(), chi.URLParam(r, "id"), user.ID, domain.DeliveryStatus(req.Status), req.Code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to advance delivery", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// Complete confirms receipt and releases the frozen funds to the seller.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.CompleteOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.orderUC.Complete(r.Context(), chi.URLParam(r, "id"), user.ID, req.Code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to complete order", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// Cancel cancels the order, refunding the buyer if already charged.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	order, err := h.orderUC.Cancel(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to cancel order", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// Dispute opens a dispute on an active order.
func (h *OrderHandler) Dispute(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.DisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.orderUC.OpenDispute(r.Context(), chi.URLParam(r, "id"), user.ID, req.Reason)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to open dispute", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// ResolveDispute adjudicates a disputed order. Admin only.
func (h *OrderHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.orderUC.ResolveDispute(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to resolve dispute", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}
