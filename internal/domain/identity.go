package domain

import (
	"context"
	"errors"
)

// User is the already-authenticated identity attached to a request. The
// core trusts this id; identity issuance lives outside the ledger.
type User struct {
	ID    string
	Email string
	Role  Role
}

// Role represents a caller's access level.
type Role string

const (
	// RoleAdmin adjudicates disputes, approves loans and makes manual credits
	RoleAdmin Role = "admin"

	// RoleMember is a regular platform account
	RoleMember Role = "member"

	// RoleCourier handles delivery sub-state transitions
	RoleCourier Role = "courier"
)

var validRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleMember:  true,
	RoleCourier: true,
}

// IsValid checks if the role is a known role.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanAdjudicate reports whether the role may resolve disputes and approve
// or cancel loans.
func (r Role) CanAdjudicate() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type userContextKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok
}
