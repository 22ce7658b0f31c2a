package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrimart/agrimart/internal/core/domain"
	"github.com/agrimart/agrimart/internal/port"
)

const tokenTTL = 7 * 24 * time.Hour

// AuthService issues and verifies bearer credentials and owns the user
// collection, including the admin user-management surface.
type AuthService struct {
	users  port.UserRepository
	authz  Authorizer
	secret []byte
}

func NewAuthService(users port.UserRepository, authz Authorizer, secret string) *AuthService {
	return &AuthService{users: users, authz: authz, secret: []byte(secret)}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("%w: name and a valid email are required", domain.ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.sign(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.sign(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Verify parses a bearer token and returns the caller identity.
func (s *AuthService) Verify(token string) (Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, domain.ErrInvalidCredentials
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, domain.ErrInvalidCredentials
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return Identity{}, domain.ErrInvalidCredentials
	}
	return Identity{UserID: sub, Role: domain.Role(role)}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, caller Identity) (*domain.User, error) {
	u, err := s.users.GetUserByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", caller.UserID, err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *AuthService) ListUsers(ctx context.Context, caller Identity) ([]domain.User, error) {
	if !s.authz.CanAdmin(caller) {
		return nil, domain.ErrUnauthorized
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AuthService) DeleteUser(ctx context.Context, id string, caller Identity) error {
	if !s.authz.CanAdmin(caller) {
		return domain.ErrUnauthorized
	}
	ok, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if !ok {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *AuthService) sign(u *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"role": string(u.Role),
		"exp":  time.Now().Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
