// Package app builds the shared object graph every binary starts from.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/appointment"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/config"
	"github.com/hackgods/vaccine-scheduling/internal/db"
	"github.com/hackgods/vaccine-scheduling/internal/metrics"
	redisclient "github.com/hackgods/vaccine-scheduling/internal/redis"
	"github.com/hackgods/vaccine-scheduling/internal/storage/memory"
	"github.com/hackgods/vaccine-scheduling/internal/storage/postgres"
)

// Backend is what a storage implementation provides to the rest of the app.
type Backend interface {
	booking.UnitOfWork
	appointment.EventRepository
	Accounts() account.Repository
}

type App struct {
	Config   config.Config
	Log      zerolog.Logger
	Pool     *pgxpool.Pool // nil for the memory backend
	Redis    *redis.Client // nil when Redis is not configured
	Backend  Backend
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Engine   *booking.Engine
	Accounts *account.Service
}

// New connects the configured backends and wires the booking engine.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Log:      log,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry, "vaccine_scheduler")

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.Pool = pool

		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = db.Migrate(migrateCtx, pool)
		cancel()
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Backend = postgres.New(pool)
		log.Info().Msg("connected to Postgres")
	default:
		a.Backend = memory.New()
		log.Warn().Msg("using in-memory store, data is lost on exit")
	}

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.Redis = rdb
	if rdb != nil {
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	} else {
		log.Info().Msg("redis not configured, reservation locks are process-local")
	}

	locker := redisclient.NewLocker(rdb, cfg.LockTTL, cfg.LockWait)
	a.Engine = booking.NewEngine(a.Backend, locker, a.Backend, a.Metrics, log)
	a.Accounts = account.NewService(a.Backend.Accounts(), account.NewBcryptHasher(bcrypt.DefaultCost))

	return a, nil
}

func (a *App) Close() {
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn().Err(err).Msg("error closing redis")
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
