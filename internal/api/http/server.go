package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// ServerConfig bundles what NewServer needs.
type ServerConfig struct {
	App            config.AppConfig
	RateLimit      config.RateLimitConfig
	LimiterStorage fiber.Storage
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Tokens         *auth.TokenManager
	Routes         RouteConfig
}

// NewServer builds the fiber app with middlewares and routes registered.
func NewServer(cfg ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ProxyHeader:           cfg.App.ProxyHeader,
	})

	RegisterMiddlewares(app, MiddlewareConfig{
		Logger:         cfg.Logger,
		Metrics:        cfg.Metrics,
		Tokens:         cfg.Tokens,
		Timeout:        time.Duration(cfg.App.RequestTimeoutSeconds) * time.Second,
		CORSOrigins:    cfg.App.CORSAllowedOrigins,
		RateLimit:      cfg.RateLimit,
		LimiterStorage: cfg.LimiterStorage,
	})
	RegisterRoutes(app, cfg.Routes)
	return app
}
