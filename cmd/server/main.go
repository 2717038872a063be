package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"emissions-platform/internal/app"
	"emissions-platform/internal/config"
	"emissions-platform/internal/handlers"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("emissions-api", app.Version, logging.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[STARTUP] Starting emissions platform API server", logging.Fields{
		"version":         app.Version,
		"server_host":     cfg.Server.Host,
		"server_port":     cfg.Server.Port,
		"storage_backend": cfg.Storage.Backend,
	})

	metricsCollector := metrics.NewCollector("emissions_platform", prometheus.DefaultRegisterer)

	application, err := app.New(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to initialize services", logging.Fields{}, err)
	}
	defer application.Close()

	if cfg.Datasets.IngestOnStartup {
		// dataset failures degrade to empty views; only storage errors stop startup
		if _, err := application.Ingest(ctx); err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to store datasets", logging.Fields{}, err)
		}
	}

	go application.Calculator.RunJanitor(ctx, cfg.Calculator.JanitorInterval)

	router := handlers.NewRouter(
		handlers.NewEmissionHandler(application.Summary, application.Repo, logger, metricsCollector),
		handlers.NewCalculatorHandler(application.Calculator, application.Summary, logger, metricsCollector),
		promhttp.Handler(),
		logger,
		metricsCollector,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	<-ctx.Done()

	logger.Info(context.Background(), "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(shutdownCtx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
