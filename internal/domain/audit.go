package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records who changed a money-bearing resource and how.
type AuditLog struct {
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionOrderConfirm   AuditAction = "order.confirm_payment"
	AuditActionOrderComplete  AuditAction = "order.complete"
	AuditActionOrderCancel    AuditAction = "order.cancel"
	AuditActionOrderDispute   AuditAction = "order.dispute"
	AuditActionOrderResolve   AuditAction = "order.resolve_dispute"
	AuditActionLoanRequest    AuditAction = "loan.request"
	AuditActionLoanApprove    AuditAction = "loan.approve"
	AuditActionLoanReject     AuditAction = "loan.reject"
	AuditActionLoanCancel     AuditAction = "loan.cancel"
	AuditActionLoanRepay      AuditAction = "loan.repay"
	AuditActionPointsConvert  AuditAction = "points.convert"
	AuditActionDeposit        AuditAction = "account.deposit"
	AuditActionMembershipFee  AuditAction = "membership.capture"
	AuditActionAccountCreate  AuditAction = "account.create"
	AuditActionScorePenalty   AuditAction = "account.score_penalty"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
