package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/contacts-api/internal/api/http"
	"github.com/spec-kit/contacts-api/internal/api/http/handlers"
	"github.com/spec-kit/contacts-api/internal/auth"
	"github.com/spec-kit/contacts-api/internal/config"
	"github.com/spec-kit/contacts-api/internal/events"
	"github.com/spec-kit/contacts-api/internal/observability"
	"github.com/spec-kit/contacts-api/internal/persistence"
	"github.com/spec-kit/contacts-api/internal/repository"
	"github.com/spec-kit/contacts-api/internal/service"
	"github.com/spec-kit/contacts-api/internal/worker"
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

	if cfg.Auth.GeneratedSecret {
		logger.Warn("AUTH_JWT_SECRET not set; generated a random secret, tokens will not survive a restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dependencies []handlers.Dependency
	var userRepo repository.UserRepository
	if cfg.Postgres.DSN != "" {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pg.PoolHandle())
		dependencies = append(dependencies, handlers.Dependency{Name: "postgres", Pinger: pg})
	} else {
		logger.Warn("POSTGRES_DSN not set; users are kept in memory")
		userRepo = repository.NewMemoryUserRepository()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	if redis.Enabled() {
		dependencies = append(dependencies, handlers.Dependency{Name: "redis", Pinger: redis})
	}

	a := cfg.Auth.Argon2
	hasher, err := auth.NewArgon2Hasher(auth.Argon2Params{
		MemoryKB:   a.MemoryKB,
		Time:       a.Time,
		Threads:    a.Threads,
		SaltLength: a.SaltLength,
		KeyLength:  a.KeyLength,
	})
	if err != nil {
		logger.Fatal("failed to build password hasher", zap.Error(err))
	}

	tokens, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:          []byte(cfg.Auth.JWTSecret),
		Algorithm:       cfg.Auth.JWTAlgorithm,
		DefaultLifetime: cfg.Auth.AccessTokenTTL(),
	})
	if err != nil {
		logger.Fatal("failed to build token codec", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	audit := service.NewAuditService(dispatcher, logger, redis.Client, cfg.Audit)
	if audit.StreamEnabled() {
		auditWorker := worker.NewAuditWorker(audit, logger, cfg.Audit.QueueSize)
		auditWorker.Subscribe(dispatcher)
		auditWorker.Start()
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := auditWorker.Stop(stopCtx); err != nil {
				logger.Warn("audit queue not drained", zap.Error(err))
			}
		}()
	}

	authService, err := service.NewAuthService(service.AuthDependencies{
		Users:      userRepo,
		Hasher:     hasher,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to build auth service", zap.Error(err))
	}

	b := cfg.Bootstrap
	created, err := authService.EnsureSuperuser(ctx, b.SuperuserEmail, b.SuperuserPassword, b.SuperuserFullName)
	if err != nil {
		logger.Fatal("failed to create first superuser", zap.Error(err))
	}
	if created {
		logger.Info("first superuser created", zap.String("email", b.SuperuserEmail))
	}

	metrics := observability.NewMetrics()
	gate := auth.NewAuthMiddleware(tokens, userRepo, httptransport.GateConfig(cfg.App.APIPrefix), logger, metrics)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), gate)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Prefix: cfg.App.APIPrefix,
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, dependencies...),
		Docs:   handlers.NewDocsHandler(cfg.App.Name, cfg.App.Version, cfg.App.APIPrefix),
		Auth:   handlers.NewAuthHandler(authService),
		Users:  handlers.NewUsersHandler(authService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
