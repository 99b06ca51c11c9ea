// @title                       JDM Vault Auth API
// @version                     1.0
// @description                 Registration, login and admin user management for the JDM Vault storefront.
// @BasePath                    /
// @securityDefinitions.apikey  TokenAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/choafros/jdm-vault/internal/api"
	"github.com/choafros/jdm-vault/internal/api/handler"
	"github.com/choafros/jdm-vault/internal/core/service"
	mongodb "github.com/choafros/jdm-vault/internal/infrastructure/db/mongo"
	redisdb "github.com/choafros/jdm-vault/internal/infrastructure/db/redis"
	"github.com/choafros/jdm-vault/internal/infrastructure/queue"
	"github.com/choafros/jdm-vault/internal/infrastructure/security"
	"github.com/choafros/jdm-vault/internal/pkg/config"
	"github.com/choafros/jdm-vault/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log := logger.Get()
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWith(ctx, envconfig.OsLookuper())
	if err != nil {
		logger.Init(logger.Options{Service: "jdm-vault"})
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "jdm-vault",
	})

	client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	events := mongodb.NewAuditRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := events.EnsureIndexes(ctx); err != nil {
		return err
	}

	tokens, err := security.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	limiter := redisdb.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout)

	// Workers keep draining after the signal so queued events reach the store.
	audit := queue.NewDispatcher(cfg.Audit.Workers, cfg.Audit.BufferSize, events, log)
	audit.Start(context.WithoutCancel(ctx))
	defer audit.Close()

	authService := service.NewAuthService(users, hasher, tokens, limiter, audit, log)
	userService := service.NewUserService(users, audit, log)

	if cfg.Auth.AdminUsername != "" && cfg.Auth.AdminPassword != "" {
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			return err
		}
	}

	e := api.NewRouter(api.Deps{
		AuthService: authService,
		UserService: userService,
		Tokens:      tokens,
		Log:         log,
		Health: map[string]handler.PingFunc{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, db) },
			"redis":   func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) },
		},
	})

	return serve(ctx, e, ":"+cfg.Port, log)
}

type server interface {
	Start(address string) error
	Shutdown(ctx context.Context) error
}

func serve(ctx context.Context, srv server, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.Start(addr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
