package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/vaccine-scheduling/internal/app"
	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/config"
	"github.com/hackgods/vaccine-scheduling/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New("dev", "info")
		l.Fatal().Err(err).Msg("config load error")
	}

	log := logger.New(cfg.Env, cfg.LogLevel).With().Str("service", "slot-pruner").Logger()
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.PruneInterval).Msg("slot-pruner starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	// Run once at startup
	runOnce(rootCtx, a.Engine, log)

	ticker := time.NewTicker(cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping slot pruner")
			return
		case <-ticker.C:
			runOnce(rootCtx, a.Engine, log)
		}
	}
}

// runOnce drops open slots dated before today. Booked dates are untouched
// since their slots were already consumed.
func runOnce(ctx context.Context, engine *booking.Engine, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	today := availability.Day(start.UTC())
	removed, err := engine.PruneAvailability(runCtx, today)
	if err != nil {
		log.Error().Err(err).Msg("prune run failed")
		return
	}
	log.Info().
		Int64("removed", removed).
		Str("before", today.Format(availability.DateLayout)).
		Dur("took", time.Since(start)).
		Msg("prune run complete")
}
