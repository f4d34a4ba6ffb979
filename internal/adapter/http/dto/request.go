package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/domain"
	"github.com/loopmarket/treasury/internal/usecase"
)

// CreateAccountRequest represents a request to open a user account.
type CreateAccountRequest struct {
	Name           string `json:"name"`
	SellerVerified bool   `json:"seller_verified"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Name:           r.Name,
		SellerVerified: r.SellerVerified,
	}
}

// DepositRequest represents an administrative balance injection.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// MembershipFeeRequest represents a membership fee charge.
type MembershipFeeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// OrderItemRequest is one requested listing variant.
type OrderItemRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest represents a request to open a purchase order.
type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items"`
	DeliveryType  string             `json:"delivery_type"`
	PaymentMethod string             `json:"payment_method"`
}

// ToUseCaseInput converts to use case input for the given buyer.
func (r *CreateOrderRequest) ToUseCaseInput(buyerID string) usecase.CreateOrderInput {
	items := make([]usecase.OrderItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = usecase.OrderItemInput{
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
		}
	}
	return usecase.CreateOrderInput{
		BuyerID:       buyerID,
		Items:         items,
		DeliveryType:  domain.DeliveryType(r.DeliveryType),
		PaymentMethod: r.PaymentMethod,
	}
}

// AdvanceDeliveryRequest moves a courier order to the next delivery state.
type AdvanceDeliveryRequest struct {
	Status string `json:"status"`
	Code   string `json:"code,omitempty"`
}

// CompleteOrderRequest confirms receipt with the delivery code.
type CompleteOrderRequest struct {
	Code string `json:"code"`
}

// DisputeRequest opens a dispute on an order.
type DisputeRequest struct {
	Reason string `json:"reason"`
}

// ResolveDisputeRequest is the admin adjudication of a disputed order.
type ResolveDisputeRequest struct {
	Resolution        string  `json:"resolution"`
	PenalizeAccountID *string `json:"penalize_account_id,omitempty"`
	PenaltyPoints     int     `json:"penalty_points,omitempty"`
}

// ToUseCaseInput converts to use case input for the given order.
func (r *ResolveDisputeRequest) ToUseCaseInput(orderID string) usecase.ResolveDisputeInput {
	return usecase.ResolveDisputeInput{
		OrderID:           orderID,
		Resolution:        domain.DisputeResolution(r.Resolution),
		PenalizeAccountID: r.PenalizeAccountID,
		PenaltyPoints:     r.PenaltyPoints,
	}
}

// RequestLoanRequest represents a loan application.
type RequestLoanRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	Installments int             `json:"installments"`
	DueDate      time.Time       `json:"due_date"`
}

// ToUseCaseInput converts to use case input for the given borrower.
func (r *RequestLoanRequest) ToUseCaseInput(borrowerID string) usecase.RequestLoanInput {
	return usecase.RequestLoanInput{
		BorrowerID:   borrowerID,
		Amount:       r.Amount,
		Installments: r.Installments,
		DueDate:      r.DueDate,
	}
}

// RejectLoanRequest carries the rejection reason.
type RejectLoanRequest struct {
	Reason string `json:"reason"`
}
