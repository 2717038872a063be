package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"emissions-platform/internal/app"
	"emissions-platform/internal/config"
	"emissions-platform/pkg/database"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("emissions-migrate", app.Version, logging.ParseLevel(cfg.Logging.Level))
	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	}, logger, metrics.NewCollector("emissions_migrate", prometheus.NewRegistry()))
	if err != nil {
		logger.Fatal(ctx, "[MIGRATE_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	logger.Info(ctx, "[MIGRATE_START] Running migrations", logging.Fields{
		"direction": *direction,
		"database":  cfg.Database.Database,
	})

	if err := database.Migrate(db.DB().DB, database.Direction(*direction)); err != nil {
		logger.Fatal(ctx, "[MIGRATE_ERROR] Migration failed", logging.Fields{"direction": *direction}, err)
	}

	logger.Info(ctx, "[MIGRATE_COMPLETE] Migration completed successfully", logging.Fields{
		"direction": *direction,
	})
}
