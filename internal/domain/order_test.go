package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusWaitingPayment, OrderStatusPaymentConfirmed, true},
		{OrderStatusWaitingPayment, OrderStatusCancelled, true},
		{OrderStatusWaitingPayment, OrderStatusCompleted, false},
		{OrderStatusPaymentConfirmed, OrderStatusWaitingShipping, true},
		{OrderStatusPaymentConfirmed, OrderStatusInDispute, true},
		{OrderStatusPaymentConfirmed, OrderStatusCancelled, false},
		{OrderStatusWaitingShipping, OrderStatusCompleted, true},
		{OrderStatusWaitingShipping, OrderStatusCancelled, true},
		{OrderStatusWaitingShipping, OrderStatusInDispute, true},
		{OrderStatusInDispute, OrderStatusCompleted, true},
		{OrderStatusInDispute, OrderStatusCancelled, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusWaitingPayment, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestDeliveryStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    DeliveryStatus
		to      DeliveryStatus
		allowed bool
	}{
		{DeliveryStatusAvailable, DeliveryStatusAccepted, true},
		{DeliveryStatusAccepted, DeliveryStatusInTransit, true},
		{DeliveryStatusInTransit, DeliveryStatusDelivered, true},
		{DeliveryStatusAvailable, DeliveryStatusInTransit, false},
		{DeliveryStatusAvailable, DeliveryStatusDelivered, false},
		{DeliveryStatusAccepted, DeliveryStatusAvailable, false},
		{DeliveryStatusDelivered, DeliveryStatusAvailable, false},
		{DeliveryStatusNone, DeliveryStatusAccepted, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.allowed, got)
		}
	}
}

func TestOrder_TotalCharge(t *testing.T) {
	order := &Order{
		Gross:       decimal.RequireFromString("50.00"),
		DeliveryFee: decimal.RequireFromString("10.00"),
	}

	if !order.TotalCharge().Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("expected 60.00, got %s", order.TotalCharge())
	}
}

func TestOrderItem_Subtotal(t *testing.T) {
	item := OrderItem{Quantity: 3, UnitPrice: decimal.RequireFromString("12.50")}

	if !item.Subtotal().Equal(decimal.RequireFromString("37.50")) {
		t.Errorf("expected 37.50, got %s", item.Subtotal())
	}
}

func TestOrder_Validate(t *testing.T) {
	validItems := []OrderItem{{ID: "item-1", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}}

	tests := []struct {
		name        string
		order       *Order
		expectError error
	}{
		{
			name: "valid order",
			order: &Order{
				BuyerID:     "buyer-1",
				SellerID:    "seller-1",
				Items:       validItems,
				Gross:       decimal.NewFromInt(10),
				DeliveryFee: decimal.Zero,
			},
		},
		{
			name: "buyer and seller identical",
			order: &Order{
				BuyerID:  "acc-1",
				SellerID: "acc-1",
				Items:    validItems,
				Gross:    decimal.NewFromInt(10),
			},
			expectError: ErrSameAccount,
		},
		{
			name: "no items",
			order: &Order{
				BuyerID:  "buyer-1",
				SellerID: "seller-1",
				Gross:    decimal.NewFromInt(10),
			},
			expectError: ErrValidationFailed,
		},
		{
			name: "zero gross",
			order: &Order{
				BuyerID:  "buyer-1",
				SellerID: "seller-1",
				Items:    validItems,
				Gross:    decimal.Zero,
			},
			expectError: ErrInvalidAmount,
		},
		{
			name: "negative delivery fee",
			order: &Order{
				BuyerID:     "buyer-1",
				SellerID:    "seller-1",
				Items:       validItems,
				Gross:       decimal.NewFromInt(10),
				DeliveryFee: decimal.NewFromInt(-1),
			},
			expectError: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()

			if tt.expectError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.expectError != nil && err != tt.expectError {
				t.Errorf("expected error %v, got %v", tt.expectError, err)
			}
		})
	}
}
