package port

import (
	"context"

	"github.com/agrimart/agrimart/internal/core/domain"
)

type UserRepository interface {
	// CreateUser fails with domain.ErrEmailTaken on a duplicate email.
	CreateUser(ctx context.Context, u *domain.User) error

	// GetUserByEmail returns nil, nil when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetUserByID returns nil, nil when the user does not exist.
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	ListUsers(ctx context.Context) ([]domain.User, error)

	DeleteUser(ctx context.Context, id string) (bool, error)
}
