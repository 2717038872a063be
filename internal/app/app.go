// Package app assembles storage, dataset sources and services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"emissions-platform/internal/config"
	"emissions-platform/internal/repository"
	"emissions-platform/internal/services"
	"emissions-platform/internal/source"
	"emissions-platform/pkg/database"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// Version is reported in logs by every binary
const Version = "1.0.0"

// App holds the wired services of one process
type App struct {
	Config     *config.Config
	Logger     *logging.StructuredLogger
	Metrics    *metrics.Collector
	Repo       repository.EmissionRepository
	Fetcher    *source.Fetcher
	Ingestion  *services.IngestionService
	Summary    *services.SummaryService
	Calculator *services.CalculatorService

	db *database.PostgresDB
}

// New opens the configured storage backend and builds the services on top of it
func New(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metricsCollector,
	}

	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		db, err := database.NewPostgresDB(ctx, &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger, metricsCollector)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
		a.Repo = repository.NewEmissionRepository(db, logger, metricsCollector)
	case config.StorageMemory:
		a.Repo = repository.NewMemoryRepository()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	a.Fetcher = source.NewFetcher(cfg.Sources.S3, cfg.Datasets.FetchTimeout, logger)
	a.Ingestion = services.NewIngestionService(a.Repo, a.Fetcher, logger, metricsCollector)
	a.Summary = services.NewSummaryService(a.Repo, logger, metricsCollector)
	a.Calculator = services.NewCalculatorService(a.Repo, cfg.Calculator.SessionTTL, logger, metricsCollector)

	logger.Info(ctx, "[APP_READY] Services initialized", logging.Fields{
		"storage_backend": cfg.Storage.Backend,
	})

	return a, nil
}

// DatasetURIs returns the configured dataset locations
func (a *App) DatasetURIs() services.DatasetURIs {
	return services.DatasetURIs{
		Entity:        a.Config.Datasets.EntityURI,
		Year:          a.Config.Datasets.YearURI,
		PredictedYear: a.Config.Datasets.PredictedYearURI,
	}
}

// Ingest loads every configured dataset into storage
func (a *App) Ingest(ctx context.Context) (*services.IngestionResult, error) {
	return a.Ingestion.IngestAll(ctx, a.DatasetURIs())
}

// Close releases the dataset clients and the database pool
func (a *App) Close() error {
	var errs []error
	if err := a.Fetcher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close dataset sources: %w", err))
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
