package auth

import (
	"context"

	"github.com/niolikon/taskboard/internal/apperr"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey contextKey = "authenticated_user"

// ContextWithUser adds the authenticated user to the context.
func ContextWithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user stored by the auth middleware.
func UserFromContext(ctx context.Context) (AuthenticatedUser, error) {
	user, ok := ctx.Value(userContextKey).(AuthenticatedUser)
	if !ok || user.ID == "" {
		return AuthenticatedUser{}, apperr.Unauthorized("Error in user authentication")
	}
	return user, nil
}

// UserIDFromContext returns the caller id, or "" when unauthenticated.
func UserIDFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userContextKey).(AuthenticatedUser)
	return user.ID
}
