package handlers

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/models"
	"emissions-platform/internal/render"
	"emissions-platform/internal/services"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// HealthChecker reports whether the storage backend is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmissionHandler handles the aggregate, table and yearly endpoints
type EmissionHandler struct {
	responder
	summaryService *services.SummaryService
	health         HealthChecker
}

// NewEmissionHandler creates a new emission handler
func NewEmissionHandler(
	summaryService *services.SummaryService,
	health HealthChecker,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *EmissionHandler {
	return &EmissionHandler{
		responder:      responder{logger: logger, metrics: metricsCollector},
		summaryService: summaryService,
		health:         health,
	}
}

// SummaryResponse is the aggregate view plus the headline totals in millions
type SummaryResponse struct {
	engine.Summary
	Millions engine.Headline `json:"millions"`
}

// GetSummary handles GET /api/emissions/summary
func (h *EmissionHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary := h.summaryService.Summary(r.Context())
	h.sendJSON(w, r, SummaryResponse{Summary: summary, Millions: summary.Millions()}, http.StatusOK)
}

// GetTable handles GET /api/emissions/table
func (h *EmissionHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	key := metricParam(r)
	page, limit := pagination(r)

	table, err := h.summaryService.Table(r.Context(), key, page, limit)
	if err != nil {
		h.sendFailure(w, r, "[API_GET_TABLE_ERROR] Failed to build entity table", "failed to retrieve entity table", err)
		return
	}

	h.sendJSON(w, r, PaginatedResponse{
		Data:       table.Rows,
		Metric:     string(table.Metric),
		Total:      table.Total,
		Page:       table.Page,
		Limit:      table.Limit,
		TotalPages: (table.Total + table.Limit - 1) / table.Limit,
	}, http.StatusOK)
}

// GetYearly handles GET /api/emissions/yearly
func (h *EmissionHandler) GetYearly(w http.ResponseWriter, r *http.Request) {
	view, err := h.summaryService.YearlySeries(r.Context(), metricParam(r))
	if err != nil {
		h.sendFailure(w, r, "[API_GET_YEARLY_ERROR] Failed to build yearly series", "failed to retrieve yearly series", err)
		return
	}
	h.sendJSON(w, r, view, http.StatusOK)
}

// GetYearlyChart handles GET /api/emissions/yearly/chart
func (h *EmissionHandler) GetYearlyChart(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	key := metricParam(r)
	view, err := h.summaryService.YearlySeries(r.Context(), key)
	if err != nil {
		h.sendFailure(w, r, "[API_GET_CHART_ERROR] Failed to load yearly series", "failed to render chart", err)
		return
	}

	// render into a buffer so a failed render can still produce a JSON error
	var buf bytes.Buffer
	if err := render.YearlyChart(&buf, view.Series, key, format); err != nil {
		h.sendFailure(w, r, "[API_GET_CHART_ERROR] Failed to render yearly chart", "failed to render chart", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn(r.Context(), "[API_WRITE_ERROR] Failed to write chart", logging.Fields{"error": err.Error()})
	}
}

// HealthCheck handles GET /health
func (h *EmissionHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := h.health.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_FAILED] Storage health check failed", logging.Fields{}, err)
		status["status"] = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{"status": status["status"]})
	h.sendJSON(w, r, status, code)
}

// RegisterRoutes registers all emission API routes
func (h *EmissionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/emissions/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/api/emissions/table", h.GetTable).Methods("GET")
	router.HandleFunc("/api/emissions/yearly", h.GetYearly).Methods("GET")
	router.HandleFunc("/api/emissions/yearly/chart", h.GetYearlyChart).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

// metricParam reads the metric query parameter, defaulting to total emission
func metricParam(r *http.Request) models.MetricKey {
	raw := strings.TrimSpace(r.URL.Query().Get("metric"))
	if raw == "" {
		return models.MetricTotalEmission
	}
	key, _ := models.ParseMetricKey(raw)
	return key
}
