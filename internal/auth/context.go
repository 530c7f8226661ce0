package auth

import (
	"context"

	"github.com/nuklias/crm/internal/model"
)

type contextKey struct{}

// WithPrincipal stores the authenticated user in the context.
func WithPrincipal(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// PrincipalFromContext retrieves the authenticated user, if any.
func PrincipalFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*model.User)
	return u, ok
}
