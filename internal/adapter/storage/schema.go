package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          VARCHAR(36) PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		email       VARCHAR(255) NOT NULL,
		password    VARCHAR(255) NOT NULL,
		role        VARCHAR(16)  NOT NULL DEFAULT 'user',
		created_at  DATETIME(6)  NOT NULL,
		updated_at  DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          VARCHAR(36) PRIMARY KEY,
		name        VARCHAR(255) NOT NULL,
		description TEXT,
		price       DECIMAL(12,2) NOT NULL,
		stock       INT NOT NULL DEFAULT 0,
		category    VARCHAR(128),
		image       VARCHAR(512),
		created_at  DATETIME(6) NOT NULL,
		updated_at  DATETIME(6) NOT NULL,
		CHECK (stock >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                 VARCHAR(36) PRIMARY KEY,
		user_id            VARCHAR(36) NOT NULL,
		total_price        DECIMAL(12,2) NOT NULL,
		status             VARCHAR(16) NOT NULL,
		payment_status     VARCHAR(16) NOT NULL,
		payment_method     VARCHAR(64) NOT NULL,
		ship_street        VARCHAR(255),
		ship_city          VARCHAR(128),
		ship_state         VARCHAR(128),
		ship_postal_code   VARCHAR(32),
		ship_country       VARCHAR(128),
		tracking_number    VARCHAR(128),
		estimated_delivery DATETIME(6) NULL,
		created_at         DATETIME(6) NOT NULL,
		updated_at         DATETIME(6) NOT NULL,
		KEY idx_orders_user_created (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id   VARCHAR(36) NOT NULL,
		line_no    INT NOT NULL,
		product_id VARCHAR(36) NOT NULL,
		quantity   INT NOT NULL,
		price      DECIMAL(12,2) NOT NULL,
		PRIMARY KEY (order_id, line_no)
	)`,
}

// EnsureSchema creates the tables on startup when they do not exist.
// Order lines carry no foreign key to products: deleting a product must
// not corrupt historical orders.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
