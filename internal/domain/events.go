package domain

import "time"

// Event types
const (
	EventTypeOrderConfirmed  = "order.payment_confirmed"
	EventTypeOrderCompleted  = "order.completed"
	EventTypeOrderCancelled  = "order.cancelled"
	EventTypeOrderDisputed   = "order.disputed"
	EventTypeLoanRequested   = "loan.requested"
	EventTypeLoanApproved    = "loan.approved"
	EventTypeLoanRejected    = "loan.rejected"
	EventTypeLoanRepaid      = "loan.installment_paid"
	EventTypeLoanSettled     = "loan.settled"
	EventTypePointsConverted = "points.converted"
	EventTypeDepositApplied  = "account.deposited"
	EventTypeFeeCaptured     = "membership.fee_captured"
)

// Aggregate types
const (
	AggregateTypeOrder   = "order"
	AggregateTypeLoan    = "loan"
	AggregateTypeAccount = "account"
)

// OutboxEvent represents an event to be published after commit. It is
// written in the same unit of work as the state change it announces.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}
