package opshandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrcore/internal/domain/auth"
	"hrcore/internal/platform/metrics"
	"hrcore/internal/transport/http/api"
	"hrcore/internal/transport/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	DB      Pinger
	Metrics *metrics.Collector
}

func NewHandler(db Pinger, collector *metrics.Collector) *Handler {
	return &Handler{DB: db, Metrics: collector}
}

// RegisterProbes mounts the unauthenticated liveness and readiness checks.
func (h *Handler) RegisterProbes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})
	r.Get("/readyz", h.handleReady)
}

// RegisterRoutes mounts the admin metrics snapshot when a collector is set.
func (h *Handler) RegisterRoutes(r chi.Router) {
	if h.Metrics == nil {
		return
	}
	r.With(middleware.RequirePermission(auth.PermMetricsRead)).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, h.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
	})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.Ping(ctx); err != nil {
		api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database not ready", requestID)
		return
	}
	api.Success(w, map[string]string{"status": "ready"}, requestID)
}
