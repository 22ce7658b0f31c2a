package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/agrimart/agrimart/internal/core/domain"
)

const mysqlErrDuplicateEntry = 1062

type MySQLUsers struct {
	db *sql.DB
}

func NewMySQLUsers(db *sql.DB) *MySQLUsers {
	return &MySQLUsers{db: db}
}

func (m *MySQLUsers) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MySQLUsers) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getUser(ctx, `email = ?`, email)
}

func (m *MySQLUsers) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return m.getUser(ctx, `id = ?`, id)
}

func (m *MySQLUsers) getUser(ctx context.Context, cond string, arg any) (*domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, role, created_at, updated_at
		FROM users WHERE `+cond, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (m *MySQLUsers) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, email, password, role, created_at, updated_at
		FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (m *MySQLUsers) DeleteUser(ctx context.Context, id string) (bool, error) {
	result, err := m.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
