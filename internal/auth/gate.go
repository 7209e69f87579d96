package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smartbin/smartbin-backend/internal/models"
)

// UserStore is the slice of the repository the gate needs. A missing user
// is reported as (nil, nil), not an error.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUserLastLogin(ctx context.Context, id string, t time.Time) error
	UpdateUserPassword(ctx context.Context, id, hash, salt string) error
}

// Gate authenticates users and issues opaque session tokens.
type Gate struct {
	users    UserStore
	sessions SessionStore
}

// NewGate creates an auth gate over the given user store and session store.
func NewGate(users UserStore, sessions SessionStore) *Gate {
	return &Gate{users: users, sessions: sessions}
}

// Sessions exposes the session store for middleware token lookups.
func (g *Gate) Sessions() SessionStore {
	return g.sessions
}

// Authenticate verifies credentials and, on success, updates ultimo_login
// and returns a fresh session token plus the user record.
func (g *Gate) Authenticate(ctx context.Context, username, password string) (string, *models.User, error) {
	u, err := g.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		return "", nil, ErrUserNotFound
	}
	if !u.Active {
		return "", nil, ErrUserDisabled
	}
	if err := CheckPassword(u.PasswordHash, u.PasswordSalt, password); err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	if err := g.users.UpdateUserLastLogin(ctx, u.ID, now); err != nil {
		return "", nil, fmt.Errorf("failed to update last login: %w", err)
	}
	u.LastLogin = &now

	token, err := NewSessionToken()
	if err != nil {
		return "", nil, err
	}
	g.sessions.Put(token, u.Username)
	return token, u, nil
}

// CreateUser hashes the password and stores a new active user record.
// Fails with ErrUserExists when the username is taken.
func (g *Gate) CreateUser(ctx context.Context, username, password, name, role, email string) (*models.User, error) {
	existing, err := g.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, salt, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		Name:         name,
		Role:         role,
		Email:        email,
		CreatedAt:    time.Now().UTC(),
		Active:       true,
	}
	if err := g.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword rehashes with a fresh salt and stores the new material.
func (g *Gate) ChangePassword(ctx context.Context, username, newPassword string) error {
	u, err := g.users.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	hash, salt, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return g.users.UpdateUserPassword(ctx, u.ID, hash, salt)
}

// ResolveToken maps a session token back to its user record.
func (g *Gate) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	username, ok := g.sessions.Get(token)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := g.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// Logout invalidates the token. Unknown tokens are a no-op.
func (g *Gate) Logout(token string) {
	g.sessions.Delete(token)
}
