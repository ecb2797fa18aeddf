package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/lifecycle"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	required := map[string]handlers.Pinger{}
	var (
		ticketRepo repository.TicketRepository
		userRepo   repository.UserRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		ticketRepo = repository.NewTicketRepository(pool)
		userRepo = repository.NewUserRepository(pool)
		required["postgres"] = pg
	} else {
		logger.Warn("using in-memory storage; data is lost on restart")
		ticketRepo = repository.NewMemoryTicketRepository()
		userRepo = repository.NewMemoryUserRepository()
	}

	var (
		cache     service.AssignableUsersCache
		publisher service.EventPublisher
	)
	optional := map[string]handlers.Pinger{}
	if redis := persistence.NewRedis(ctx, cfg.Redis, logger); redis != nil {
		defer redis.Close()
		if userCache := persistence.NewUserCache(redis, cfg.Cache.AssignableUsersTTL()); userCache != nil {
			cache = userCache
		}
		publisher = redis
		optional["redis"] = redis
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(dispatcher, publisher, logger, cfg.Notification)

	authService := service.NewAuthService(cfg.Auth, userRepo, logger.Named("auth"))
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		Cache:      cache,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger.Named("users"),
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Clock:      lifecycle.SystemClock,
		Dispatcher: dispatcher,
		Logger:     logger.Named("tickets"),
	})

	if _, err := authService.EnsureAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	}

	app := httptransport.NewServer(httptransport.ServerDeps{
		App:      cfg.App,
		Logger:   logger,
		Metrics:  observability.NewMetrics(),
		Auth:     authService,
		Users:    userService,
		Tickets:  ticketService,
		UserRepo: userRepo,
		Required: required,
		Optional: optional,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
