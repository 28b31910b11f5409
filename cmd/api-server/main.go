package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/vaccine-scheduling/internal/api"
	"github.com/hackgods/vaccine-scheduling/internal/app"
	"github.com/hackgods/vaccine-scheduling/internal/auth"
	"github.com/hackgods/vaccine-scheduling/internal/config"
	"github.com/hackgods/vaccine-scheduling/internal/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New("dev", "info")
		l.Fatal().Err(err).Msg("config load error")
	}

	log := logger.New(cfg.Env, cfg.LogLevel).With().Str("service", "api-server").Logger()
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Str("store", cfg.StoreBackend).Msg("api-server starting up")

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" {
			log.Fatal().Msg("JWT_SECRET is required outside dev")
		}
		cfg.JWTSecret = "dev-only-secret"
		log.Warn().Msg("JWT_SECRET not set, using the dev secret")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	limiter := api.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	go limiter.Cleanup(rootCtx, time.Minute, 3*time.Minute)

	router := api.NewRouter(api.RouterConfig{
		Engine:   a.Engine,
		Accounts: a.Accounts,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		TokenTTL: cfg.TokenTTL,
		Limiter:  limiter,
		Gatherer: a.Registry,
		PgPool:   a.Pool,
		Redis:    a.Redis,
		Logger:   log,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		a.Close()
		os.Exit(1)
	}

	log.Info().Msg("api-server stopped")
}
