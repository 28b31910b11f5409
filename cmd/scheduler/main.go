package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hackgods/vaccine-scheduling/internal/app"
	"github.com/hackgods/vaccine-scheduling/internal/config"
	"github.com/hackgods/vaccine-scheduling/internal/logger"
	"github.com/hackgods/vaccine-scheduling/internal/shell"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New("dev", "info")
		l.Fatal().Err(err).Msg("config load error")
	}

	// stdout belongs to the shell, logs go to stderr
	log := logger.New(cfg.Env, cfg.LogLevel).With().Str("service", "scheduler").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	sh := shell.New(a.Engine, a.Accounts, os.Stdout, log)
	if err := sh.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("reading commands failed")
	}
}
