package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	identityKey  = "auth_identity"
	tokenErrKey  = "auth_token_error"
	bearerPrefix = "bearer"
)

// Authenticate parses a bearer token when one is present and stores the
// identity on the request. It never rejects; RequireAuth does that, so
// rate limiting and idempotency scoping can see the identity first.
func Authenticate(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if header == "" {
			return c.Next()
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerPrefix) || strings.TrimSpace(parts[1]) == "" {
			c.Locals(tokenErrKey, apperrors.NewUnauthorized(apperrors.CodeInvalidToken, "Invalid authorization header"))
			return c.Next()
		}

		claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			c.Locals(tokenErrKey, apperrors.NewUnauthorized(apperrors.CodeInvalidToken, "Invalid or expired token"))
			return c.Next()
		}

		identity := claims.Identity()
		c.Locals(identityKey, &identity)
		return c.Next()
	}
}

// RequireAuth rejects requests without a valid identity.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); ok {
			return c.Next()
		}
		if err, ok := c.Locals(tokenErrKey).(error); ok {
			return err
		}
		return apperrors.NewUnauthorized(apperrors.CodeAuthRequired, "Authentication required")
	}
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(*domain.Identity)
	return identity, ok && identity != nil
}
