// Package authpw provides email/password sign-in for admin users.
package authpw

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"showcase/api/internal/rbac"
	"showcase/api/internal/store"
	"showcase/api/internal/util"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDeactivated        = errors.New("account is deactivated")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
)

// AdminStore defines the storage interface for admin auth
type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (store.AdminUser, error)
	InsertAdmin(ctx context.Context, user store.AdminUser) error
}

// Service provides email/password authentication
type Service struct {
	store AdminStore
}

func NewService(store AdminStore) *Service {
	return &Service{store: store}
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// SignIn checks credentials. Unknown emails and wrong passwords produce the
// same error.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.AdminUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return store.AdminUser{}, ErrInvalidCredentials
	}

	user, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.AdminUser{}, ErrInvalidCredentials
		}
		return store.AdminUser{}, fmt.Errorf("lookup admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.AdminUser{}, ErrInvalidCredentials
	}
	if user.DeactivatedAt != nil {
		return store.AdminUser{}, ErrDeactivated
	}
	return user, nil
}

// EnsureAdmin creates an admin account for email unless one exists. It
// reports whether a new account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, errors.New("admin email is required")
	}

	_, err := s.store.GetAdminByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	name, _, _ := strings.Cut(email, "@")
	user := store.AdminUser{
		ID:           util.NewID("adm"),
		Email:        email,
		DisplayName:  name,
		PasswordHash: hash,
		Role:         string(rbac.RoleAdmin),
	}
	if err := s.store.InsertAdmin(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
