package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zerotodo/zerotodo/internal/handler"
	"github.com/zerotodo/zerotodo/internal/metrics"
	"github.com/zerotodo/zerotodo/internal/middleware"
)

// RouterConfig carries the handlers and policies wired into the router.
type RouterConfig struct {
	Logger *slog.Logger

	Root    *handler.Handler
	Health  *handler.HealthHandler
	Metrics *handler.MetricsHandler
	Users   *handler.UserHandler
	Auth    *handler.AuthHandler
	Todos   *handler.TodoHandler

	Authenticator middleware.Authenticator
	LoginLimiter  middleware.LoginLimiter
	Recorder      metrics.Recorder

	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64

	RateLimitLoginEnabled   bool
	RateLimitLoginPerMinute int
	RateLimitLoginBurst     int
}

// NewRouter configures the chi router with all routes and middleware.
// Every route answers with and without a trailing slash.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(chimiddleware.StripSlashes)

	requireUser := middleware.Auth(middleware.AuthConfig{
		Logger:        logger,
		Authenticator: cfg.Authenticator,
	})
	loginLimit := middleware.RateLimitLogin(middleware.RateLimitConfig{
		Logger:    logger,
		Limiter:   cfg.LoginLimiter,
		Metrics:   cfg.Recorder,
		Enabled:   cfg.RateLimitLoginEnabled,
		PerMinute: cfg.RateLimitLoginPerMinute,
		Burst:     cfg.RateLimitLoginBurst,
	})

	// Probes and metrics
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	r.Get("/metrics", cfg.Metrics.Metrics)

	r.Get("/", cfg.Root.Root)
	r.Get("/exercicio-html", cfg.Root.HelloHTML)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", cfg.Users.Create)
		r.Get("/", cfg.Users.List)
		r.Get("/{id}", cfg.Users.Get)
		r.Put("/{id}", cfg.Users.Update)
		r.Delete("/{id}", cfg.Users.Delete)
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(loginLimit).Post("/token", cfg.Auth.Token)
		r.With(requireUser).Post("/refresh_token", cfg.Auth.Refresh)
	})

	r.Route("/todos", func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/", cfg.Todos.Create)
		r.Get("/", cfg.Todos.List)
		r.Patch("/{id}", cfg.Todos.Patch)
		r.Delete("/{id}", cfg.Todos.Delete)
	})

	// 404 and 405 handlers
	r.NotFound(cfg.Root.NotFound)
	r.MethodNotAllowed(cfg.Root.MethodNotAllowed)

	return r
}
