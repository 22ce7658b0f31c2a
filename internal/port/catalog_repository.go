package port

import (
	"context"

	"github.com/agrimart/agrimart/internal/core/domain"
)

type CatalogRepository interface {
	// GetProduct returns nil, nil when the product does not exist.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)

	CreateProduct(ctx context.Context, p *domain.Product) error

	// UpdateProduct returns false when the product does not exist.
	UpdateProduct(ctx context.Context, p *domain.Product) (bool, error)

	DeleteProduct(ctx context.Context, id string) (bool, error)

	// ReserveStock atomically decrements stock by quantity, only when the
	// current stock covers it. The check and the write must be a single
	// conditional statement against the store, never read-then-write.
	// Returns false when stock is insufficient or the product is gone.
	ReserveStock(ctx context.Context, id string, quantity int) (bool, error)

	// ReleaseStock increments stock by quantity (restock on cancel or on
	// a failed order). Returns false when the product no longer exists.
	ReleaseStock(ctx context.Context, id string, quantity int) (bool, error)
}
