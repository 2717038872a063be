package services

import (
	"context"
	"fmt"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/models"
	"emissions-platform/internal/repository"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// SummaryService derives aggregate and series views from the stored datasets
type SummaryService struct {
	repo    repository.EmissionRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// TableRow is one row of the entity table for the selected metric
type TableRow struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// TablePage is a page of table rows
type TablePage struct {
	Metric models.MetricKey `json:"metric"`
	Rows   []TableRow       `json:"rows"`
	Total  int              `json:"total"`
	Page   int              `json:"page"`
	Limit  int              `json:"limit"`
}

// YearlyView is the year series with its chart domain and axis labels for one metric.
// Values, Domain and Labels are empty when the metric does not resolve.
type YearlyView struct {
	Metric models.MetricKey `json:"metric"`
	Series engine.Series    `json:"series"`
	Values []float64        `json:"values,omitempty"`
	Domain *engine.Bounds   `json:"domain,omitempty"`
	Labels []string         `json:"labels,omitempty"`
}

// NewSummaryService creates a new summary service
func NewSummaryService(repo repository.EmissionRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SummaryService {
	return &SummaryService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Summary returns the totals and breakdown of the entity dataset. When the
// dataset cannot be loaded it returns the empty aggregate instead of an error.
func (s *SummaryService) Summary(ctx context.Context) engine.Summary {
	timer := s.metrics.NewTimer(s.metrics.SummaryDuration)
	defer timer.ObserveDuration()

	records, err := s.repo.ListEntities(ctx)
	if err != nil {
		s.metrics.SummaryFallbacksTotal.Inc()
		s.logger.Error(ctx, "[SUMMARY_FALLBACK] Entity dataset unavailable, serving empty summary", logging.Fields{
			"stage": "LOAD",
		}, err)
		return engine.EmptySummary()
	}

	summary := engine.Summarize(records)

	s.logger.Debug(ctx, "[SUMMARY_COMPUTED] Summary computed", logging.Fields{
		"entities":      len(records),
		"total_carbon":  summary.TotalCarbonEmissions,
		"total_methane": summary.TotalMethaneEmissions,
	})

	return summary
}

// Table returns one page of entity rows with the display value of key.
// Keys outside the table metrics produce empty cells.
func (s *SummaryService) Table(ctx context.Context, key models.MetricKey, page, limit int) (*TablePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}

	records, err := s.repo.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}

	result := &TablePage{
		Metric: key,
		Rows:   make([]TableRow, 0, limit),
		Total:  len(records),
		Page:   page,
		Limit:  limit,
	}

	start := (page - 1) * limit
	if start >= len(records) {
		return result, nil
	}
	end := start + limit
	if end > len(records) {
		end = len(records)
	}

	for i := start; i < end; i++ {
		result.Rows = append(result.Rows, TableRow{
			ID:    records[i].ID,
			Name:  records[i].Name,
			Value: engine.CellValue(&records[i], key),
		})
	}

	return result, nil
}

// YearlySeries returns the observed year series and its derived chart values for key
func (s *SummaryService) YearlySeries(ctx context.Context, key models.MetricKey) (*YearlyView, error) {
	records, err := s.repo.ListYearRecords(ctx, models.YearDatasetObserved)
	if err != nil {
		return nil, fmt.Errorf("failed to load year records: %w", err)
	}

	view := &YearlyView{
		Metric: key,
		Series: engine.BuildSeries(records),
	}

	values, ok := view.Series.Values(key)
	if !ok {
		s.logger.Debug(ctx, "[SERIES_NO_VALUE] Metric does not resolve on year records", logging.Fields{
			"metric": string(key),
		})
		return view, nil
	}
	view.Values = values

	if bounds, ok := engine.Domain(view.Series, key); ok {
		view.Domain = &bounds
	}
	view.Labels, _ = engine.MagnitudeLabels(view.Series, key)

	return view, nil
}

// EntityNames returns the distinct entity names offered by the calculator's selection list
func (s *SummaryService) EntityNames(ctx context.Context) ([]string, error) {
	names, err := s.repo.ListEntityNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity names: %w", err)
	}
	return names, nil
}
