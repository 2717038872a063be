package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// NewRouter wires every API route behind the request-ID and instrumentation
// middleware. metricsHandler serves /metrics when non-nil.
func NewRouter(
	emission *EmissionHandler,
	calculator *CalculatorHandler,
	metricsHandler http.Handler,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestID, Instrument(metricsCollector, logger))

	emission.RegisterRoutes(router)
	calculator.RegisterRoutes(router)
	RegisterDocRoutes(router)

	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods("GET")
	}

	return router
}
