package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agrimart/agrimart/internal/core/domain"
)

type MySQLOrders struct {
	db *sql.DB
}

func NewMySQLOrders(db *sql.DB) *MySQLOrders {
	return &MySQLOrders{db: db}
}

const orderColumns = `id, user_id, total_price, status, payment_status, payment_method,
	ship_street, ship_city, ship_state, ship_postal_code, ship_country,
	tracking_number, estimated_delivery, created_at, updated_at`

func (m *MySQLOrders) CreateOrder(ctx context.Context, o *domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.TotalPrice, o.Status, o.PaymentStatus, o.PaymentMethod,
		o.ShippingAddress.Street, o.ShippingAddress.City, o.ShippingAddress.State,
		o.ShippingAddress.PostalCode, o.ShippingAddress.Country,
		nullString(o.TrackingNumber), o.EstimatedDelivery, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, l := range o.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, line_no, product_id, quantity, price)
			VALUES (?, ?, ?, ?, ?)`,
			o.ID, i, l.ProductID, l.Quantity, l.Price,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLOrders) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	if err := m.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (m *MySQLOrders) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return m.list(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (m *MySQLOrders) ListAll(ctx context.Context) ([]domain.Order, error) {
	return m.list(ctx, `
		SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (m *MySQLOrders) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := m.loadLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (m *MySQLOrders) UpdateOrder(ctx context.Context, o *domain.Order) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, payment_status = ?, tracking_number = ?, estimated_delivery = ?, updated_at = ?
		WHERE id = ?`,
		o.Status, o.PaymentStatus, nullString(o.TrackingNumber), o.EstimatedDelivery, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

func (m *MySQLOrders) DeleteOrder(ctx context.Context, id string) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete order lines: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	rows, _ := result.RowsAffected()
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (m *MySQLOrders) loadLines(ctx context.Context, o *domain.Order) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, quantity, price
		FROM order_lines WHERE order_id = ? ORDER BY line_no`, o.ID)
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.Price); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	return rows.Err()
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var street, city, state, postal, country, tracking sql.NullString
	var eta sql.NullTime
	err := row.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.Status, &o.PaymentStatus, &o.PaymentMethod,
		&street, &city, &state, &postal, &country,
		&tracking, &eta, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.ShippingAddress = domain.ShippingAddress{
		Street:     street.String,
		City:       city.String,
		State:      state.String,
		PostalCode: postal.String,
		Country:    country.String,
	}
	o.TrackingNumber = tracking.String
	if eta.Valid {
		t := eta.Time
		o.EstimatedDelivery = &t
	}
	return &o, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
