package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the escrow order lifecycle state.
type OrderStatus string

const (
	OrderStatusWaitingPayment   OrderStatus = "waiting_payment"
	OrderStatusPaymentConfirmed OrderStatus = "payment_confirmed"
	OrderStatusWaitingShipping  OrderStatus = "waiting_shipping"
	OrderStatusInDispute        OrderStatus = "in_dispute"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// orderTransitions is the allowed state machine. Terminal states have no
// outgoing edges; any attempt past them is ErrInvalidStateTransition.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusWaitingPayment:   {OrderStatusPaymentConfirmed, OrderStatusCancelled},
	OrderStatusPaymentConfirmed: {OrderStatusWaitingShipping, OrderStatusInDispute},
	OrderStatusWaitingShipping:  {OrderStatusCompleted, OrderStatusCancelled, OrderStatusInDispute},
	OrderStatusInDispute:        {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransitionTo reports whether the status change is permitted.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsTerminal reports whether the order can never change state again.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// DeliveryStatus is the courier sub-state, meaningful only while the order
// waits for shipping.
type DeliveryStatus string

const (
	DeliveryStatusNone      DeliveryStatus = "none"
	DeliveryStatusAvailable DeliveryStatus = "available"
	DeliveryStatusAccepted  DeliveryStatus = "accepted"
	DeliveryStatusInTransit DeliveryStatus = "in_transit"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

var deliveryTransitions = map[DeliveryStatus]DeliveryStatus{
	DeliveryStatusAvailable: DeliveryStatusAccepted,
	DeliveryStatusAccepted:  DeliveryStatusInTransit,
	DeliveryStatusInTransit: DeliveryStatusDelivered,
}

// CanTransitionTo reports whether the delivery sub-state change is
// permitted. The sub-machine is strictly linear.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	return deliveryTransitions[s] == next
}

// DeliveryType distinguishes buyer pickup from courier delivery.
type DeliveryType string

const (
	DeliveryTypePickup  DeliveryType = "pickup"
	DeliveryTypeCourier DeliveryType = "courier"
)

// DisputeResolution is the admin adjudication outcome.
type DisputeResolution string

const (
	DisputeRefundBuyer     DisputeResolution = "refund_buyer"
	DisputeReleaseToSeller DisputeResolution = "release_to_seller"
)

// Order represents one marketplace purchase whose funds are held by the
// platform until delivery or adjudication. Never deleted; cancellation is
// a terminal status.
type Order struct {
	ID             string
	BuyerID        string
	SellerID       string
	CourierID      *string
	Items          []OrderItem
	Gross          decimal.Decimal
	FeeRate        decimal.Decimal
	Fee            decimal.Decimal
	SellerNet      decimal.Decimal
	DeliveryFee    decimal.Decimal
	DeliveryType   DeliveryType
	PaymentMethod  string
	Status         OrderStatus
	DeliveryStatus DeliveryStatus
	DisputeReason  *string
	Resolution     *DisputeResolution
	PickupCode     string
	DeliveryCode   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ConfirmedAt    *time.Time
	ClosedAt       *time.Time
}

// OrderItem is one purchased listing variant.
type OrderItem struct {
	ID        string
	OrderID   string
	ListingID string
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity times unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalCharge is what the buyer pays: gross plus delivery fee.
func (o *Order) TotalCharge() decimal.Decimal {
	return o.Gross.Add(o.DeliveryFee)
}

// Validate checks order invariants before persistence.
func (o *Order) Validate() error {
	if o.BuyerID == o.SellerID {
		return ErrSameAccount
	}

	if len(o.Items) == 0 {
		return ErrValidationFailed
	}

	if o.Gross.LessThanOrEqual(decimal.Zero) || o.DeliveryFee.IsNegative() {
		return ErrInvalidAmount
	}

	return nil
}
