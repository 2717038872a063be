package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/models"
	"emissions-platform/internal/repository"
	"emissions-platform/internal/source"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// Dataset names used in logs, metrics and results
const (
	DatasetEntity    = "entity"
	DatasetYear      = "year"
	DatasetPredicted = "predicted_year"
)

// Fetcher retrieves a raw dataset document
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// DatasetURIs locates the three input datasets. PredictedYear may be empty.
type DatasetURIs struct {
	Entity        string
	Year          string
	PredictedYear string
}

// IngestionService loads the input datasets into the repository
type IngestionService struct {
	repo    repository.EmissionRepository
	fetcher Fetcher
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// DatasetResult contains per-dataset ingestion statistics
type DatasetResult struct {
	Dataset           string `json:"dataset"`
	URI               string `json:"uri"`
	TotalRecords      int    `json:"total_records"`
	SuccessfulRecords int    `json:"successful_records"`
	FailedRecords     int    `json:"failed_records"`
	Skipped           bool   `json:"skipped"`
	Error             string `json:"error,omitempty"`
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	Datasets []DatasetResult `json:"datasets"`
	Duration time.Duration   `json:"duration"`
	Errors   []string        `json:"errors"`
}

// Dataset returns the result for one dataset name
func (r *IngestionResult) Dataset(name string) (DatasetResult, bool) {
	for _, d := range r.Datasets {
		if d.Dataset == name {
			return d, true
		}
	}
	return DatasetResult{}, false
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.EmissionRepository, fetcher Fetcher, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		fetcher: fetcher,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestAll loads every configured dataset. A dataset that cannot be fetched
// or parsed is logged and reported in the result without stopping the others;
// a failed entity dataset leaves the store empty so that summaries fall back
// to the empty aggregate. Only storage failures are returned as errors.
func (s *IngestionService) IngestAll(ctx context.Context, uris DatasetURIs) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting dataset ingestion", logging.Fields{
		"entity_uri":         uris.Entity,
		"year_uri":           uris.Year,
		"predicted_year_uri": uris.PredictedYear,
		"stage":              "INITIALIZATION",
	})

	result := &IngestionResult{Errors: make([]string, 0)}

	steps := []struct {
		name   string
		uri    string
		ingest func(context.Context, string) (DatasetResult, error)
	}{
		{DatasetEntity, uris.Entity, s.ingestEntities},
		{DatasetYear, uris.Year, s.yearIngester(models.YearDatasetObserved, DatasetYear)},
		{DatasetPredicted, uris.PredictedYear, s.yearIngester(models.YearDatasetPredicted, DatasetPredicted)},
	}

	for _, step := range steps {
		if step.uri == "" {
			result.Datasets = append(result.Datasets, DatasetResult{Dataset: step.name, Skipped: true})
			continue
		}

		dr, err := step.ingest(ctx, step.uri)
		dr.Dataset = step.name
		dr.URI = step.uri
		if dr.Error != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", step.name, dr.Error))
		}
		result.Datasets = append(result.Datasets, dr)

		if err != nil {
			s.metrics.RecordIngestionError("storage_error")
			return nil, fmt.Errorf("failed to store %s dataset: %w", step.name, err)
		}
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Dataset ingestion completed", logging.Fields{
		"duration_seconds": result.Duration.Seconds(),
		"error_count":      len(result.Errors),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// fetch wraps the fetch boundary with logging and metrics. A non-nil error
// here is a degraded dataset, never a fatal one.
func (s *IngestionService) fetch(ctx context.Context, dataset, uri string) ([]byte, error) {
	data, err := s.fetcher.Fetch(ctx, uri)
	if err != nil {
		s.metrics.RecordDatasetFetchError(dataset, source.Scheme(uri))
		s.logger.Error(ctx, "[INGEST_FETCH_ERROR] Dataset fetch failed", logging.Fields{
			"dataset": dataset,
			"uri":     uri,
			"stage":   "FETCH",
		}, err)
		return nil, err
	}
	return data, nil
}

func (s *IngestionService) ingestEntities(ctx context.Context, uri string) (DatasetResult, error) {
	var dr DatasetResult

	data, err := s.fetch(ctx, DatasetEntity, uri)
	if err != nil {
		dr.Error = err.Error()
		return dr, s.repo.ReplaceEntities(ctx, nil)
	}

	raw, err := models.DecodeEntityDataset(data)
	if err != nil {
		s.metrics.RecordIngestionError("parse_error")
		s.logger.Error(ctx, "[INGEST_PARSE_ERROR] Entity dataset could not be parsed", logging.Fields{
			"uri":   uri,
			"stage": "PARSE",
		}, err)
		dr.Error = err.Error()
		return dr, s.repo.ReplaceEntities(ctx, nil)
	}

	dr.TotalRecords = len(raw)
	records := make([]*models.EntityRecord, 0, len(raw))
	for i := range raw {
		rec, err := raw[i].ToEntity(i)
		if err != nil {
			dr.FailedRecords++
			s.metrics.RecordIngestionError("validation_error")
			s.logger.Warn(ctx, "[INGEST_INVALID_RECORD] Skipping invalid entity record", logging.Fields{
				"position": i,
				"error":    err.Error(),
				"stage":    "VALIDATION",
			})
			continue
		}
		records = append(records, rec)
	}
	dr.SuccessfulRecords = len(records)

	if err := s.repo.ReplaceEntities(ctx, records); err != nil {
		return dr, err
	}
	s.metrics.IngestionRecordsTotal.WithLabelValues(DatasetEntity).Add(float64(len(records)))

	s.logger.Info(ctx, "[INGEST_DATASET_SUCCESS] Entity dataset ingested", logging.Fields{
		"uri":                uri,
		"total_records":      dr.TotalRecords,
		"successful_records": dr.SuccessfulRecords,
		"failed_records":     dr.FailedRecords,
		"stage":              "STORE",
	})

	return dr, nil
}

// yearIngester returns the ingest step for one year dataset. A failed fetch
// or parse keeps whatever was stored before.
func (s *IngestionService) yearIngester(kind models.YearDatasetKind, dataset string) func(context.Context, string) (DatasetResult, error) {
	return func(ctx context.Context, uri string) (DatasetResult, error) {
		var dr DatasetResult

		data, err := s.fetch(ctx, dataset, uri)
		if err != nil {
			dr.Error = err.Error()
			return dr, nil
		}

		raw, err := models.DecodeYearDataset(data)
		if err != nil {
			s.metrics.RecordIngestionError("parse_error")
			s.logger.Error(ctx, "[INGEST_PARSE_ERROR] Year dataset could not be parsed", logging.Fields{
				"dataset": dataset,
				"uri":     uri,
				"stage":   "PARSE",
			}, err)
			dr.Error = err.Error()
			return dr, nil
		}

		dr.TotalRecords = len(raw)
		complete := make(models.RawYearDataset, 0, len(raw))
		for i := range raw {
			if missing := engine.MissingYearLabels(&raw[i]); len(missing) > 0 {
				err := &models.ValidationError{
					Field:   strings.Join(missing, ","),
					Value:   raw[i].Label,
					Message: fmt.Sprintf("year %q is missing %s", raw[i].Label, strings.Join(missing, ", ")),
				}
				dr.FailedRecords++
				s.metrics.RecordIngestionError("validation_error")
				s.logger.Warn(ctx, "[INGEST_INVALID_RECORD] Skipping incomplete year entry", logging.Fields{
					"dataset": dataset,
					"year":    raw[i].Label,
					"error":   err.Error(),
					"stage":   "VALIDATION",
				})
				continue
			}
			complete = append(complete, raw[i])
		}

		records := engine.CanonicalizeYears(complete)
		dr.SuccessfulRecords = len(records)

		if err := s.repo.ReplaceYearRecords(ctx, kind, records); err != nil {
			return dr, err
		}
		s.metrics.IngestionRecordsTotal.WithLabelValues(dataset).Add(float64(len(records)))

		s.logger.Info(ctx, "[INGEST_DATASET_SUCCESS] Year dataset ingested", logging.Fields{
			"dataset":       dataset,
			"uri":           uri,
			"total_records":  dr.TotalRecords,
			"failed_records": dr.FailedRecords,
			"stage":          "STORE",
		})

		return dr, nil
	}
}
