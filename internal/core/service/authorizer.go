package service

import "github.com/agrimart/agrimart/internal/core/domain"

// Identity is the verified caller, derived from a bearer token.
type Identity struct {
	UserID string
	Role   domain.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == domain.RoleAdmin
}

// Authorizer decides what a caller may do with an order. Handlers never
// inspect roles directly; every access decision goes through here.
type Authorizer interface {
	CanAccessOrder(caller Identity, o *domain.Order) bool
	CanSetStatus(caller Identity, o *domain.Order, next domain.OrderStatus) bool
	CanAdmin(caller Identity) bool
}

// RoleAuthorizer is the default policy: admins can do everything, an
// owner can read their own orders and cancel them, nothing else.
type RoleAuthorizer struct{}

func (RoleAuthorizer) CanAccessOrder(caller Identity, o *domain.Order) bool {
	return caller.IsAdmin() || caller.UserID == o.UserID
}

func (RoleAuthorizer) CanSetStatus(caller Identity, o *domain.Order, next domain.OrderStatus) bool {
	if caller.IsAdmin() {
		return true
	}
	return caller.UserID == o.UserID && next == domain.OrderStatusCancelled
}

func (RoleAuthorizer) CanAdmin(caller Identity) bool {
	return caller.IsAdmin()
}
