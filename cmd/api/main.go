package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := persistence.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	logger.Info("store ready", zap.String("driver", store.Driver))

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var limiterStorage fiber.Storage
	if redis.Reachable() {
		limiterStorage = persistence.NewLimiterStorage(redis.Client, "helpdesk:ratelimit:")
	} else {
		logger.Warn("rate limiter falling back to in-memory counters")
	}

	clock := clockwork.NewRealClock()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.RegisterActivitySubscribers(dispatcher, metrics, logger)

	repos := store.Repos
	recorder := service.NewActivityRecorder(repos.Activities, dispatcher, clock, logger, metrics)
	controller := service.NewConcurrencyController(repos.Tickets, clock, metrics)
	ticketService := service.NewTicketService(service.TicketDependencies{
		Repos:      repos,
		Controller: controller,
		Recorder:   recorder,
		Clock:      clock,
	})
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, clock)
	authService := service.NewAuthService(cfg.Auth, repos.Users, tokens, clock)
	cache := service.NewIdempotencyCache(repos.Idempotency, clock, logger, metrics)
	sweeper := worker.NewSLASweeper(repos.Tickets, recorder, clock, logger, metrics, worker.SLASweeperConfig{
		Interval:  cfg.SLA.Interval(),
		BatchSize: cfg.SLA.BatchSize,
	})

	app := httptransport.NewServer(httptransport.ServerConfig{
		App:            cfg.App,
		RateLimit:      cfg.RateLimit,
		LimiterStorage: limiterStorage,
		Logger:         logger,
		Metrics:        metrics,
		Tokens:         tokens,
		Routes: httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version,
				handlers.Dependency{Name: store.Driver, Ping: repos.Ping},
				handlers.Dependency{Name: "redis", Ping: redis.Ping, Optional: true},
			),
			Auth:        handlers.NewAuthHandler(authService),
			Tickets:     handlers.NewTicketsHandler(ticketService),
			Admin:       handlers.NewAdminHandler(sweeper),
			Idempotency: cache,
			Metrics:     metrics.Handler(),
		},
	})

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	var sweeperDone sync.WaitGroup
	if cfg.SLA.Enabled {
		sweeperDone.Add(1)
		go func() {
			defer sweeperDone.Done()
			sweeper.Run(sweepCtx)
		}()
	}

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	// Drain HTTP first, then stop the sweeper, then release the store.
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	stopSweeper()
	sweeperDone.Wait()
	store.Close()
	logger.Info("shutdown complete")
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
