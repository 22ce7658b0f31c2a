package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/agrimart/agrimart/internal/core/domain"
)

type MySQLCatalog struct {
	db *sql.DB
}

func NewMySQLCatalog(db *sql.DB) *MySQLCatalog {
	return &MySQLCatalog{db: db}
}

const productColumns = `id, name, description, price, stock, category, image, created_at, updated_at`

func (m *MySQLCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (m *MySQLCatalog) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var conds []string
	var args []any

	if filter.Search != "" {
		conds = append(conds, `(name LIKE ? OR description LIKE ?)`)
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	if len(filter.Categories) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Categories)), ",")
		conds = append(conds, `category IN (`+placeholders+`)`)
		for _, c := range filter.Categories {
			args = append(args, c)
		}
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	switch filter.SortBy {
	case "name-desc":
		query += ` ORDER BY name DESC`
	case "price-asc":
		query += ` ORDER BY price ASC`
	case "price-desc":
		query += ` ORDER BY price DESC`
	default:
		query += ` ORDER BY name ASC`
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (m *MySQLCatalog) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price, p.Stock, p.Category, p.Image,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLCatalog) UpdateProduct(ctx context.Context, p *domain.Product) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, stock = ?, category = ?, image = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Price, p.Stock, p.Category, p.Image, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update product: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLCatalog) DeleteProduct(ctx context.Context, id string) (bool, error) {
	result, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ReserveStock is the no-oversell guard: a single conditional UPDATE
// enforcing stock >= quantity at write time. Concurrent reservations
// against the same product serialize on the row; the loser matches no
// row and gets false.
func (m *MySQLCatalog) ReserveStock(ctx context.Context, id string, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = NOW(6)
		WHERE id = ? AND stock >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("reserve stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ReleaseStock restores quantity unconditionally; no upper bound is
// enforced.
func (m *MySQLCatalog) ReleaseStock(ctx context.Context, id string, quantity int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, updated_at = NOW(6)
		WHERE id = ?`,
		quantity, id,
	)
	if err != nil {
		return false, fmt.Errorf("release stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var description, category, image sql.NullString
	err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &p.Stock,
		&category, &image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.Category = category.String
	p.Image = image.String
	return &p, nil
}
