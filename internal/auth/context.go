package auth

import (
	"context"

	"github.com/smartbin/smartbin-backend/internal/models"
)

type contextKey string

const userKey contextKey = "user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user from the context, or nil.
func UserFromContext(ctx context.Context) *models.User {
	v := ctx.Value(userKey)
	if v == nil {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
