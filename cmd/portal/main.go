package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/academy-portal/internal/api/http"
	"github.com/spec-kit/academy-portal/internal/api/http/handlers"
	"github.com/spec-kit/academy-portal/internal/app"
	"github.com/spec-kit/academy-portal/internal/config"
	"github.com/spec-kit/academy-portal/internal/observability"
	"github.com/spec-kit/academy-portal/internal/persistence"
	"github.com/spec-kit/academy-portal/internal/realtime"
	"github.com/spec-kit/academy-portal/internal/repository"
	"github.com/spec-kit/academy-portal/internal/tokenstore"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	durable, err := durableTier(cfg, pg, redis)
	if err != nil {
		logger.Fatal("failed to build session storage", zap.Error(err))
	}
	logger.Info("session storage ready", zap.String("driver", cfg.Storage.Driver), zap.Bool("sealed", cfg.Storage.Secret != ""))

	metrics := observability.NewMetrics()

	var connector realtime.Connector
	if client := redis.ClientHandle(); client != nil {
		connector = realtime.NewRedisConnector(realtime.RedisConnectorConfig{
			Client:       client,
			AuthEndpoint: cfg.Notification.BroadcastAuthURL,
			Prefix:       cfg.Notification.ChannelPrefix,
			Timeout:      cfg.Backend.Timeout(),
			Metrics:      metrics,
			Logger:       logger.Named("realtime"),
		})
	} else {
		logger.Warn("realtime notifications disabled; no redis broadcaster configured")
	}

	portal := app.New(app.Options{
		Config:    *cfg,
		Logger:    logger,
		Metrics:   metrics,
		Durable:   durable,
		Transient: tokenstore.NewMemoryTier(),
		Connector: connector,
	})
	if err := portal.Start(); err != nil {
		logger.Fatal("failed to start background jobs", zap.Error(err))
	}
	defer portal.Stop()

	api := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(api, logger, metrics, cfg.App.RequestTimeout())

	var (
		healthPG    *persistence.Postgres
		healthRedis *persistence.Redis
	)
	if pg.PoolHandle() != nil {
		healthPG = pg
	}
	if redis.ClientHandle() != nil {
		healthRedis = redis
	}

	validate := validator.New()
	httptransport.RegisterRoutes(api, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, healthPG, healthRedis),
		Session:       handlers.NewSessionHandler(portal.Auth, portal.Router, validate, logger.Named("session")),
		Account:       handlers.NewAccountHandler(portal.Auth, validate),
		Navigation:    handlers.NewNavigationHandler(portal.Router, validate),
		Notifications: handlers.NewNotificationsHandler(portal.Notifications, portal.Bootstrap),
		Feedback:      handlers.NewFeedbackHandler(portal.Toasts, portal.Modal, portal.Loader, validate),
		Metrics:       handlers.NewMetricsHandler(metrics),
		Sessions:      portal.Auth,
	})

	go func() {
		if err := api.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("control api listening", zap.String("addr", cfg.App.Addr()))

	waitForShutdown(logger)

	_ = api.Shutdown()
}

// durableTier picks the remember-me storage for the configured driver.
func durableTier(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis) (tokenstore.Tier, error) {
	var tier tokenstore.Tier
	switch cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client := redis.ClientHandle()
		if client == nil {
			return nil, fmt.Errorf("storage driver %q requires REDIS_ADDR", cfg.Storage.Driver)
		}
		tier = tokenstore.NewRedisTier(client, cfg.Storage.Namespace)
	case config.StorageDriverPostgres:
		pool := pg.PoolHandle()
		if pool == nil {
			return nil, fmt.Errorf("storage driver %q requires POSTGRES_DSN", cfg.Storage.Driver)
		}
		tier = tokenstore.NewPostgresTier(repository.NewStorageRepository(pool), cfg.Storage.Namespace)
	case config.StorageDriverMemory, "":
		tier = tokenstore.NewMemoryTier()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	if cfg.Storage.Secret == "" {
		return tier, nil
	}
	key, err := tokenstore.DeriveKey(cfg.Storage.Secret, cfg.Storage.Namespace)
	if err != nil {
		return nil, err
	}
	return tokenstore.NewSealedTier(tier, key), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
