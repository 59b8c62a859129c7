package middleware

import (
	"inventory/internal/auth"
	"inventory/internal/models"
	"inventory/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

const identityKey = "identity"

// AuthRequired is a Fiber middleware that resolves the bearer token through
// verifier and stores the caller's identity for later handlers. Every
// failure produces the same ErrUnauthenticated response.
func AuthRequired(verifier auth.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.BearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return auth.ErrUnauthenticated
		}

		identity, err := verifier.Verify(c.UserContext(), token)
		if err != nil {
			logger.Debug("token rejected", "path", c.Path(), "err", err)
			return auth.ErrUnauthenticated
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RequireRoles is a Fiber middleware that lets the request through only if
// the identity set by AuthRequired holds one of roles.
func RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return auth.ErrUnauthenticated
		}
		if !auth.Authorize(identity.Role, roles...) {
			logger.Debug("role rejected", "path", c.Path(), "user_id", identity.ID, "role", identity.Role)
			return auth.ErrForbidden
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired.
func IdentityFrom(c *fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(identityKey).(auth.Identity)
	return identity, ok
}
