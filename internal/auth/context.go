package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-api/internal/domain"
)

const principalKey = "auth_principal"

type principalCtxKey struct{}

// Principal represents the authenticated caller.
type Principal struct {
	Subject string
	User    *domain.User
	Claims  *Claims
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return p, ok && p != nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
