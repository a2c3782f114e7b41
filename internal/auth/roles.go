package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/contacts-api/pkg/util/errorutil"
)

// RequireActive rejects principals whose account has been deactivated.
func RequireActive() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return HTTPError(ErrMissingCredentials)
		}
		if principal.User == nil || !principal.User.IsActive {
			return apperrors.NewForbidden("Inactive user")
		}
		return c.Next()
	}
}

// RequireSuperuser ensures the principal is a superuser.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return HTTPError(ErrMissingCredentials)
		}
		if principal.User == nil || !principal.User.IsSuperuser {
			return apperrors.NewForbidden("The user doesn't have enough privileges")
		}
		return c.Next()
	}
}
