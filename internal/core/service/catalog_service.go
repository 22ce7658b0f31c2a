package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agrimart/agrimart/internal/core/domain"
	"github.com/agrimart/agrimart/internal/port"
)

const productCacheTTL = 30 * time.Second

// CatalogService serves the public product listing and the admin CRUD
// surface over the catalog.
type CatalogService struct {
	repo  port.CatalogRepository
	cache port.CacheRepository
	authz Authorizer
	log   *slog.Logger
}

func NewCatalogService(repo port.CatalogRepository, cache port.CacheRepository, authz Authorizer, log *slog.Logger) *CatalogService {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &CatalogService{repo: repo, cache: cache, authz: authz, log: log}
}

// ListProducts returns the catalog. The unfiltered listing is served
// from a short-TTL cache; stock counts shown there may lag the store,
// the atomic reservation at order time is what prevents oversell.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	cacheable := s.cache != nil && filter.IsZero()
	if cacheable {
		if payload, err := s.cache.GetProductList(ctx); err == nil && payload != nil {
			var products []domain.Product
			if err := json.Unmarshal(payload, &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	if cacheable {
		if payload, err := json.Marshal(products); err == nil {
			if err := s.cache.SetProductList(ctx, payload, productCacheTTL); err != nil {
				s.log.Warn("failed to cache product list", "error", err)
			}
		}
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup product %s: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product, caller Identity) (*domain.Product, error) {
	if !s.authz.CanAdmin(caller) {
		return nil, domain.ErrUnauthorized
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product, caller Identity) (*domain.Product, error) {
	if !s.authz.CanAdmin(caller) {
		return nil, domain.ErrUnauthorized
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	p.UpdatedAt = time.Now().UTC()
	ok, err := s.repo.UpdateProduct(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", p.ID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, p.ID)
	}
	s.invalidate(ctx)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string, caller Identity) error {
	if !s.authz.CanAdmin(caller) {
		return domain.ErrUnauthorized
	}
	ok, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateProductList(ctx); err != nil {
		s.log.Warn("failed to invalidate product cache", "error", err)
	}
}

func validateProduct(p *domain.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name required", domain.ErrInvalidInput)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", domain.ErrInvalidInput)
	}
	return nil
}
