package authctx

import (
	"context"

	"comanda-backend/internal/domain"
)

type contextKey struct{}

// CurrentUser is the staff member resolved from the access token.
type CurrentUser struct {
	ID    int64
	Email string
	Role  domain.UserRole
}

func WithCurrentUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

func FromContext(ctx context.Context) (CurrentUser, bool) {
	user, ok := ctx.Value(contextKey{}).(CurrentUser)
	return user, ok
}
