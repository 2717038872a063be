package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"emissions-platform/internal/models"
	"emissions-platform/internal/render"
	"emissions-platform/internal/repository"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Metric     string      `json:"metric,omitempty"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// responder carries the shared JSON and error plumbing of every handler
type responder struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// sendJSON sends a JSON response
func (h *responder) sendJSON(w http.ResponseWriter, r *http.Request, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error(r.Context(), "[API_ENCODE_ERROR] Failed to encode response", logging.Fields{
			"path": r.URL.Path,
		}, err)
	}
}

// sendError sends an error response
func (h *responder) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIError(errorType(statusCode), routeTemplate(r))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, r, response, statusCode)
}

// sendFailure maps a service error to a status code. Unexpected errors are
// logged under tag and reported as internal errors with the generic message.
func (h *responder) sendFailure(w http.ResponseWriter, r *http.Request, tag, message string, err error) {
	var (
		vErr  *models.ValidationError
		nfErr *repository.NotFoundError
	)
	switch {
	case errors.As(err, &vErr):
		h.sendError(w, r, vErr.Error(), http.StatusBadRequest)
	case errors.As(err, &nfErr):
		h.sendError(w, r, nfErr.Error(), http.StatusNotFound)
	case errors.Is(err, render.ErrEmptySeries):
		h.sendError(w, r, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error(r.Context(), tag, logging.Fields{
			"path":   r.URL.Path,
			"method": r.Method,
		}, err)
		h.sendError(w, r, message, http.StatusInternalServerError)
	}
}

// decodeBody reads a JSON request body into dst
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &models.ValidationError{Field: "body", Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}

// pagination reads page and limit with the defaults 1 and 100; limit is capped at 1000
func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, 100

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}
	return page, limit
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

func errorType(statusCode int) string {
	switch {
	case statusCode == http.StatusNotFound:
		return "not_found"
	case statusCode >= 500:
		return "internal_error"
	default:
		return "bad_request"
	}
}
