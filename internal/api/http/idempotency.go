package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Idempotent wraps next so that a request carrying an Idempotency-Key
// header runs it at most once per caller and key. Later requests with the
// same key and payload receive the stored response unchanged.
func Idempotent(cache *service.IdempotencyCache, next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := service.IdempotentRequest{
			Key:    strings.TrimSpace(c.Get(HeaderIdempotencyKey)),
			Method: c.Method(),
			Route:  c.Path(),
			Body:   append([]byte(nil), c.Body()...),
		}
		if identity, ok := auth.IdentityFromContext(c); ok {
			userID := identity.UserID
			req.UserID = &userID
		}

		produce := func(ctx context.Context) (*service.CapturedResponse, error) {
			c.SetUserContext(ctx)
			if err := next(c); err != nil {
				return nil, err
			}
			resp := c.Response()
			return &service.CapturedResponse{
				StatusCode:  resp.StatusCode(),
				ContentType: string(resp.Header.ContentType()),
				Body:        append([]byte(nil), resp.Body()...),
			}, nil
		}

		captured, replayed, err := cache.Intercept(c.UserContext(), req, produce)
		if err != nil {
			return err
		}
		if !replayed {
			return nil
		}
		c.Set(HeaderReplayed, "true")
		if captured.ContentType != "" {
			c.Set(fiber.HeaderContentType, captured.ContentType)
		}
		return c.Status(captured.StatusCode).Send(captured.Body)
	}
}
