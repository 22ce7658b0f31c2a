package port

import (
	"context"

	"github.com/agrimart/agrimart/internal/core/domain"
)

type OrderRepository interface {
	// CreateOrder persists the order and its lines in one transaction.
	CreateOrder(ctx context.Context, o *domain.Order) error

	// GetOrder returns nil, nil when the order does not exist.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// ListByUser returns a user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)

	// ListAll returns every order, newest first.
	ListAll(ctx context.Context) ([]domain.Order, error)

	// UpdateOrder persists the mutable order fields: status, payment
	// status, tracking number, estimated delivery and updatedAt.
	UpdateOrder(ctx context.Context, o *domain.Order) error

	DeleteOrder(ctx context.Context, id string) (bool, error)
}
