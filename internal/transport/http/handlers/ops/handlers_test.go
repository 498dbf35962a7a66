package opshandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrcore/internal/domain/auth"
	"hrcore/internal/platform/metrics"
	"hrcore/internal/transport/http/middleware"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterProbes(r)
	h.RegisterRoutes(r)
	return r
}

func get(h http.Handler, target string, user *auth.UserContext) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProbes(t *testing.T) {
	assert.Equal(t, http.StatusOK, get(router(NewHandler(pinger{}, nil)), "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, get(router(NewHandler(pinger{}, nil)), "/readyz", nil).Code)

	rec := get(router(NewHandler(pinger{err: errors.New("down")}, nil)), "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}

func TestMetricsSnapshot(t *testing.T) {
	collector := metrics.New()
	collector.Record(http.StatusTooManyRequests, 3*time.Millisecond)
	h := router(NewHandler(pinger{}, collector))

	admin := auth.UserContext{AccountID: "a1", Role: auth.RoleAdmin}
	rec := get(h, "/metrics", &admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rateLimitedTotal":1`)

	employee := auth.UserContext{AccountID: "e1", Role: auth.RoleEmployee}
	assert.Equal(t, http.StatusForbidden, get(h, "/metrics", &employee).Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/metrics", nil).Code)

	disabled := router(NewHandler(pinger{}, nil))
	assert.Equal(t, http.StatusNotFound, get(disabled, "/metrics", &admin).Code)
}
