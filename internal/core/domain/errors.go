package domain

import "errors"

var (
	ErrEmptyOrder         = errors.New("order has no lines")
	ErrInvalidInput       = errors.New("invalid input")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrUnauthorized       = errors.New("not authorized")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
