package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/services"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// CalculatorHandler exposes calculator sessions over HTTP
type CalculatorHandler struct {
	responder
	calculator *services.CalculatorService
	summary    *services.SummaryService
}

// NewCalculatorHandler creates a new calculator handler
func NewCalculatorHandler(
	calculator *services.CalculatorService,
	summary *services.SummaryService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *CalculatorHandler {
	return &CalculatorHandler{
		responder:  responder{logger: logger, metrics: metricsCollector},
		calculator: calculator,
		summary:    summary,
	}
}

// InputRequest is the body of PUT /api/calculator/sessions/{id}/inputs/{input}
type InputRequest struct {
	Value string `json:"value"`
}

// EntityRequest is the body of PUT /api/calculator/sessions/{id}/entity
type EntityRequest struct {
	Name string `json:"name"`
}

// ListEntities handles GET /api/calculator/entities
func (h *CalculatorHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	names, err := h.summary.EntityNames(r.Context())
	if err != nil {
		h.sendFailure(w, r, "[API_LIST_ENTITIES_ERROR] Failed to list entity names", "failed to list entities", err)
		return
	}
	h.sendJSON(w, r, map[string][]string{"entities": names}, http.StatusOK)
}

// CreateSession handles POST /api/calculator/sessions
func (h *CalculatorHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, r, h.calculator.Create(r.Context()), http.StatusCreated)
}

// GetSession handles GET /api/calculator/sessions/{id}
func (h *CalculatorHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.calculator.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.sendFailure(w, r, "[API_GET_SESSION_ERROR] Failed to get calculator session", "failed to get session", err)
		return
	}
	h.sendJSON(w, r, view, http.StatusOK)
}

// DeleteSession handles DELETE /api/calculator/sessions/{id}
func (h *CalculatorHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.calculator.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.sendFailure(w, r, "[API_DELETE_SESSION_ERROR] Failed to delete calculator session", "failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetInput handles PUT /api/calculator/sessions/{id}/inputs/{input}
func (h *CalculatorHandler) SetInput(w http.ResponseWriter, r *http.Request) {
	input, ok := h.inputVar(w, r)
	if !ok {
		return
	}

	var req InputRequest
	if err := decodeBody(r, &req); err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.calculator.SetInput(r.Context(), mux.Vars(r)["id"], input, req.Value)
	if err != nil {
		h.sendFailure(w, r, "[API_SET_INPUT_ERROR] Failed to set calculator input", "failed to set input", err)
		return
	}
	h.sendJSON(w, r, view, http.StatusOK)
}

// ClearInput handles DELETE /api/calculator/sessions/{id}/inputs/{input}
func (h *CalculatorHandler) ClearInput(w http.ResponseWriter, r *http.Request) {
	input, ok := h.inputVar(w, r)
	if !ok {
		return
	}

	view, err := h.calculator.ClearInput(r.Context(), mux.Vars(r)["id"], input)
	if err != nil {
		h.sendFailure(w, r, "[API_CLEAR_INPUT_ERROR] Failed to clear calculator input", "failed to clear input", err)
		return
	}
	h.sendJSON(w, r, view, http.StatusOK)
}

// SelectEntity handles PUT /api/calculator/sessions/{id}/entity
func (h *CalculatorHandler) SelectEntity(w http.ResponseWriter, r *http.Request) {
	var req EntityRequest
	if err := decodeBody(r, &req); err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.calculator.SelectEntity(r.Context(), mux.Vars(r)["id"], req.Name)
	if err != nil {
		h.sendFailure(w, r, "[API_SELECT_ENTITY_ERROR] Failed to select entity", "failed to select entity", err)
		return
	}
	h.sendJSON(w, r, view, http.StatusOK)
}

// RegisterRoutes registers all calculator API routes
func (h *CalculatorHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/calculator/entities", h.ListEntities).Methods("GET")
	router.HandleFunc("/api/calculator/sessions", h.CreateSession).Methods("POST")
	router.HandleFunc("/api/calculator/sessions/{id}", h.GetSession).Methods("GET")
	router.HandleFunc("/api/calculator/sessions/{id}", h.DeleteSession).Methods("DELETE")
	router.HandleFunc("/api/calculator/sessions/{id}/inputs/{input}", h.SetInput).Methods("PUT")
	router.HandleFunc("/api/calculator/sessions/{id}/inputs/{input}", h.ClearInput).Methods("DELETE")
	router.HandleFunc("/api/calculator/sessions/{id}/entity", h.SelectEntity).Methods("PUT")
}

func (h *CalculatorHandler) inputVar(w http.ResponseWriter, r *http.Request) (engine.Input, bool) {
	raw := mux.Vars(r)["input"]
	input, ok := engine.ParseInput(raw)
	if !ok {
		h.sendError(w, r, fmt.Sprintf("unknown calculator input %q", raw), http.StatusBadRequest)
		return "", false
	}
	return input, true
}
