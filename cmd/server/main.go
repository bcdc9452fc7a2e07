package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"poketeams/docs"
	"poketeams/internal/auth"
	"poketeams/internal/cache"
	"poketeams/internal/config"
	"poketeams/internal/db"
	"poketeams/internal/handler"
	"poketeams/internal/logging"
	"poketeams/internal/repository"
	"poketeams/internal/router"
	"poketeams/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title Pokémon Team Builder API
// @version 1.0
// @description Register, log in and manage Pokémon teams with bearer-token authentication.
// @host localhost:8000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "error", "json").Error(context.Background(), "load config", "error", err.Error())
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return err
	}

	if cfg.ResetDB {
		log.Warn(ctx, "RESET_DB set, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn(ctx, "redis unavailable, team cache disabled until it recovers", "error", err.Error())
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	teamRepo := repository.NewTeamRepository(gormDB)

	// Initialize auth components
	hasher := auth.NewPasswordHasher(auth.DefaultArgon2Params, cfg.HashConcurrency)
	codec, err := auth.NewTokenCodec(cfg.SecretKey, cfg.AccessTokenTTL)
	if err != nil {
		return err
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, hasher, codec, log)
	teamService := service.NewTeamService(teamRepo, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, log)
	teamHandler := handler.NewTeamHandler(teamService, log)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, log, authService, authHandler, teamHandler)

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "port", cfg.ServerPort, "token_ttl", cfg.AccessTokenTTL.String())
		serverErrors <- e.Start(":" + cfg.ServerPort)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info(context.Background(), "server stopped")
	return nil
}
