package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RateLimiter bounds requests per caller per window. A nil storage keeps
// counters in process memory.
func RateLimiter(cfg config.RateLimitConfig, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          cfg.Max,
		Expiration:   cfg.Window(),
		KeyGenerator: rateLimitKey,
		LimitReached: func(*fiber.Ctx) error {
			return apperrors.NewRateLimited()
		},
		Storage: storage,
	})
}

// rateLimitKey prefers the authenticated user, then the first forwarded
// address, then X-Real-IP, then the socket address.
func rateLimitKey(c *fiber.Ctx) string {
	if identity, ok := auth.IdentityFromContext(c); ok {
		return "user:" + identity.UserID
	}
	if ips := c.IPs(); len(ips) > 0 && strings.TrimSpace(ips[0]) != "" {
		return "ip:" + strings.TrimSpace(ips[0])
	}
	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		return "ip:" + realIP
	}
	return "ip:" + c.IP()
}
