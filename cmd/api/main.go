package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/barberq/internal/api/router"
	"github.com/wolfman30/barberq/internal/app/bootstrap"
	appconfig "github.com/wolfman30/barberq/internal/config"
	"github.com/wolfman30/barberq/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/barberq/internal/http/middleware"
	"github.com/wolfman30/barberq/internal/observability/metrics"
	"github.com/wolfman30/barberq/pkg/logging"
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting barberq booking API",
		"env", cfg.Env,
		"port", cfg.Port,
		"upstream", cfg.APIBaseURL,
		"timezone", cfg.Location().String(),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	handler, cleanup, err := setup(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BookingTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setup wires the session store, API client and router. Background workers stop
// when ctx is cancelled; cleanup releases the session store.
func setup(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (http.Handler, func(), error) {
	store, cleanup, err := bootstrap.BuildSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	metricsHandler, bookingMetrics := setupMetrics()
	client := bootstrap.BuildAPIClient(cfg, logger)
	manager := bootstrap.BuildSessionManager(cfg, client, store, bookingMetrics, logger)

	var limiter *httpmiddleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.RunEviction(ctx, 5*time.Minute, 10*time.Minute)
	}

	r := router.New(&router.Config{
		Logger:             logger,
		Wizard:             handlers.NewWizardHandler(manager, client, logger),
		Business:           handlers.NewBusinessHandler(client, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
	})
	return r, cleanup, nil
}

// setupMetrics registers the booking collectors on a dedicated registry.
func setupMetrics() (http.Handler, *metrics.BookingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBookingMetrics(reg)
}
