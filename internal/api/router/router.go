package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/barberq/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/barberq/internal/http/middleware"
	"github.com/wolfman30/barberq/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Wizard             *handlers.WizardHandler
	Business           *handlers.BusinessHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter throttles the session and business endpoints per client IP; nil disables it.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.Wizard != nil {
			api.Get("/barbers", cfg.Wizard.ListBarbers)
			api.Mount("/sessions", cfg.Wizard.Routes())
		}
		if cfg.Business != nil {
			api.Mount("/business", cfg.Business.Routes())
		}
	})

	return r
}
