// Command taskhub serves the task tracking API.
//
// @title                       Taskhub API
// @version                     1.0
// @description                 Multi-tenant task tracking with bearer-token authentication.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/taskhub/taskhub-api/internal/api"
	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/service"
	mongodb "github.com/taskhub/taskhub-api/internal/infrastructure/db/mongo"
	redisdb "github.com/taskhub/taskhub-api/internal/infrastructure/db/redis"
	"github.com/taskhub/taskhub-api/internal/infrastructure/queue"
	"github.com/taskhub/taskhub-api/internal/infrastructure/security"
	"github.com/taskhub/taskhub-api/internal/pkg/config"
	"github.com/taskhub/taskhub-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Pretty: true})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "taskhub",
	})
	log.Info().Stringer("config", cfg).Msg("configuration loaded")

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongodb disconnect")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure mongodb indexes")
	}

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("connect to redis")
	}
	defer redisClient.Close()

	roleRepo := mongodb.NewRoleRepository(db)
	if err := roleRepo.EnsureSeeded(ctx, domain.SeedRoles()); err != nil {
		log.Fatal().Err(err).Msg("seed roles")
	}
	principalRepo := mongodb.NewPrincipalRepository(db, roleRepo)
	taskRepo := mongodb.NewTaskRepository(db)
	idempotency := redisdb.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL)

	hashPool := queue.NewHashPool(cfg.Auth.HashWorkers, security.NewBcryptHasher(cfg.Auth.BcryptCost), logger.Component("hash_pool"))
	hashPool.Start()

	if cfg.Auth.AllowAdminRegistration && cfg.IsProduction() {
		log.Warn().Msg("public registration may grant the administrator role; set ALLOW_ADMIN_REGISTRATION=false")
	}

	tokens, err := security.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("create token service")
	}

	e := api.NewRouter(api.Dependencies{
		Auth:  service.NewAuthService(principalRepo, roleRepo, hashPool, tokens, cfg.Auth.TokenTTL, logger.Component("auth")),
		Tasks: service.NewTaskService(taskRepo, idempotency, logger.Component("tasks")),
		Users: service.NewUserService(principalRepo, roleRepo, hashPool, logger.Component("users")),
		Roles: service.NewRoleService(roleRepo, principalRepo, logger.Component("roles")),
		ReadinessChecks: map[string]func(context.Context) error{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, mongoClient) },
			"redis":   func(ctx context.Context) error { return redisdb.Ping(ctx, redisClient) },
		},
		AllowAdminRegistration: cfg.Auth.AllowAdminRegistration,
		Log:                    logger.Component("http"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	// In-flight requests are done; let the pool finish its queue.
	hashPool.Stop()
	if err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server stopped")
}
