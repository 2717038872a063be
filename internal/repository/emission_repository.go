package repository

import (
	"context"
	"fmt"
	"time"

	"emissions-platform/internal/models"
	"emissions-platform/pkg/database"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// EmissionRepository provides data access for ingested emission datasets
type EmissionRepository interface {
	// Entity dataset
	ReplaceEntities(ctx context.Context, records []*models.EntityRecord) error
	ListEntities(ctx context.Context) ([]models.EntityRecord, error)
	ListEntityNames(ctx context.Context) ([]string, error)

	// Year datasets
	ReplaceYearRecords(ctx context.Context, kind models.YearDatasetKind, records []models.YearRecord) error
	ListYearRecords(ctx context.Context, kind models.YearDatasetKind) ([]models.YearRecord, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// emissionRepository implements EmissionRepository on PostgreSQL
type emissionRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewEmissionRepository creates a PostgreSQL-backed emission repository
func NewEmissionRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) EmissionRepository {
	return &emissionRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ReplaceEntities swaps the whole entity dataset in a single transaction.
// Slice order becomes the stored position.
func (r *emissionRepository) ReplaceEntities(ctx context.Context, records []*models.EntityRecord) error {
	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_REPLACE_ENTITIES] Entity dataset replaced", logging.Fields{
			"count":       len(records),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entity_records`); err != nil {
		return fmt.Errorf("failed to clear entity records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entity_records (
			position, id, name,
			fuel_emission, electricity_emission, methane_emission, total_emission
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		_, err := stmt.ExecContext(ctx,
			i,
			rec.ID,
			rec.Name,
			rec.FuelEmission,
			rec.ElectricityEmission,
			rec.MethaneEmission,
			rec.TotalEmission,
		)
		if err != nil {
			return fmt.Errorf("failed to insert entity %q: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListEntities returns the entity dataset in ingest order
func (r *emissionRepository) ListEntities(ctx context.Context) ([]models.EntityRecord, error) {
	query := `
		SELECT id, name, fuel_emission, electricity_emission, methane_emission, total_emission
		FROM entity_records
		ORDER BY position
	`

	var records []models.EntityRecord
	if err := r.db.SelectContext(ctx, "list_entities", &records, query); err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}

	return records, nil
}

// ListEntityNames returns distinct entity names in first-seen order
func (r *emissionRepository) ListEntityNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT name
		FROM entity_records
		GROUP BY name
		ORDER BY MIN(position)
	`

	var names []string
	if err := r.db.SelectContext(ctx, "list_entity_names", &names, query); err != nil {
		return nil, fmt.Errorf("failed to list entity names: %w", err)
	}

	return names, nil
}

// ReplaceYearRecords swaps one year dataset in a single transaction
func (r *emissionRepository) ReplaceYearRecords(ctx context.Context, kind models.YearDatasetKind, records []models.YearRecord) error {
	if err := validKind(kind); err != nil {
		return err
	}

	timer := time.Now()
	defer func() {
		r.metrics.IngestionBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_REPLACE_YEARS] Year dataset replaced", logging.Fields{
			"dataset":     string(kind),
			"count":       len(records),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM year_records WHERE dataset = $1`, string(kind)); err != nil {
		return fmt.Errorf("failed to clear %s year records: %w", kind, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO year_records (
			dataset, position, year,
			fuel_emission, electricity_emission, total_emission, methane_emission
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		_, err := stmt.ExecContext(ctx,
			string(kind),
			i,
			rec.Year,
			rec.FuelEmission,
			rec.ElectricityEmission,
			rec.TotalEmission,
			rec.MethaneEmission,
		)
		if err != nil {
			return fmt.Errorf("failed to insert year %s: %w", rec.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListYearRecords returns one year dataset in ingest order
func (r *emissionRepository) ListYearRecords(ctx context.Context, kind models.YearDatasetKind) ([]models.YearRecord, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}

	query := `
		SELECT year, fuel_emission, electricity_emission, total_emission, methane_emission
		FROM year_records
		WHERE dataset = $1
		ORDER BY position
	`

	var records []models.YearRecord
	if err := r.db.SelectContext(ctx, "list_year_records", &records, query, string(kind)); err != nil {
		return nil, fmt.Errorf("failed to list %s year records: %w", kind, err)
	}

	return records, nil
}

// HealthCheck checks database connectivity
func (r *emissionRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func validKind(kind models.YearDatasetKind) error {
	switch kind {
	case models.YearDatasetObserved, models.YearDatasetPredicted:
		return nil
	default:
		return &NotFoundError{Resource: "year_dataset", ID: string(kind)}
	}
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
