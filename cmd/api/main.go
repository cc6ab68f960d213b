package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/bounty-service/internal/api/http"
	"github.com/spec-kit/bounty-service/internal/api/http/handlers"
	"github.com/spec-kit/bounty-service/internal/auth"
	"github.com/spec-kit/bounty-service/internal/cache"
	"github.com/spec-kit/bounty-service/internal/config"
	"github.com/spec-kit/bounty-service/internal/events"
	"github.com/spec-kit/bounty-service/internal/observability"
	"github.com/spec-kit/bounty-service/internal/persistence"
	"github.com/spec-kit/bounty-service/internal/repository"
	"github.com/spec-kit/bounty-service/internal/repository/memory"
	"github.com/spec-kit/bounty-service/internal/service"
	"github.com/spec-kit/bounty-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var store repository.Store
	var txRunner repository.TxRunner
	if pool := pg.PoolHandle(); pool != nil {
		store, txRunner = repository.NewPostgresStore(pool)
	} else {
		memStore := memory.NewStore()
		store = memStore.Repositories()
		txRunner = memStore
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	bountyCache := cache.NewBountyCache(redis.Client, cfg.Cache.OpenBountiesTTL(), logger)

	profileService := service.NewProfileService(service.ProfileDependencies{
		Store:      store,
		Tx:         txRunner,
		Dispatcher: dispatcher,
	})
	authService := service.NewAuthService(*cfg, store, profileService)
	bountyService := service.NewBountyService(service.BountyDependencies{
		Store:      store,
		Tx:         txRunner,
		Cache:      bountyCache,
		Dispatcher: dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, profileService, bountyService),
		Bounties:       handlers.NewBountiesHandler(bountyService),
		Audit:          handlers.NewAuditHandler(bountyService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
