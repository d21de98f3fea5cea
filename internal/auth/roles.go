package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RequireRole ensures the caller holds one of the allowed roles. Admins
// pass every role check.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized(apperrors.CodeAuthRequired, "Authentication required")
		}
		if HasRole(identity.Role, allowedSet) {
			return c.Next()
		}
		return apperrors.NewForbidden("Insufficient role")
	}
}

// HasRole reports whether role satisfies the allowed set.
func HasRole(role domain.Role, allowed map[domain.Role]struct{}) bool {
	if role == domain.RoleAdmin {
		return true
	}
	_, ok := allowed[role]
	return ok
}
