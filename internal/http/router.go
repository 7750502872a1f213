package http

import (
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/tempprint/internal/observability"
)

// NewRouter wires the control API. Mutating routes go through the rate limiter.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.HandleFunc("/status", h.GetStatus).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")

	control := router.NewRoute().Subrouter()
	control.Use(RateLimitMiddleware(limiter))
	control.HandleFunc("/print", h.PostPrint).Methods("POST")
	control.HandleFunc("/skip", h.PostSkip).Methods("POST")
	control.HandleFunc("/clear", h.PostClear).Methods("POST")
	control.HandleFunc("/settings", h.PutSettings).Methods("PUT")
	return router
}
