package middleware

import (
	"context"

	"github.com/amirhosseinghanipour/expensa/internal/domain"
)

type contextKey string

const principalContextKey contextKey = "principal"

// WithPrincipal stores the verified session principal in ctx.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the verified principal, if the request carried a valid session.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(domain.Principal)
	return p, ok
}
