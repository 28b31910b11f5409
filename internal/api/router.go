package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/vaccine-scheduling/internal/account"
	"github.com/hackgods/vaccine-scheduling/internal/auth"
	"github.com/hackgods/vaccine-scheduling/internal/booking"
	"github.com/hackgods/vaccine-scheduling/internal/identity"
)

type RouterConfig struct {
	Engine   *booking.Engine
	Accounts *account.Service
	Tokens   *auth.Tokens
	TokenTTL time.Duration
	// Limiter throttles register and login. Nil disables throttling.
	Limiter *RateLimiter
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	h := &handlers{
		engine:   cfg.Engine,
		accounts: cfg.Accounts,
		tokens:   cfg.Tokens,
		tokenTTL: cfg.TokenTTL,
	}

	r.Route("/v1", func(r chi.Router) {
		// Account endpoints
		for _, role := range []identity.Role{identity.RolePatient, identity.RoleCaregiver} {
			r.Group(func(r chi.Router) {
				if cfg.Limiter != nil {
					r.Use(cfg.Limiter.Middleware)
				}
				r.Post("/"+string(role)+"s/register", h.register(role))
				r.Post("/"+string(role)+"s/login", h.login(role))
			})
		}

		// Booking endpoints
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Tokens))

			r.Get("/schedule", h.schedule)
			r.Post("/appointments", h.reserve)
			r.Get("/appointments", h.listAppointments)
			r.Delete("/appointments/{id}", h.cancel)
			r.Post("/availability", h.uploadAvailability)
			r.Post("/vaccines/{name}/doses", h.addDoses)
		})
	})

	return r
}
