package api

import (
	"context"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubCatalog struct{}

func (stubCatalog) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return []domain.Vehicle{{Plate: "AAA1A11", Model: "Daily", SlotCapacity: 10, ReturnsToDepot: true}}, nil
}

func (stubCatalog) ListItems(ctx context.Context) ([]domain.Item, error) {
	return []domain.Item{{Name: "Box"}}, nil
}

type stubPlanner struct{ calls int }

func (p *stubPlanner) Plan(ctx context.Context, req services.PlanRequest) (*domain.PlanResult, error) {
	p.calls++
	return &domain.PlanResult{RunID: "run", Status: domain.StatusInfeasible}, nil
}

const body = `{"tasks":[{"location":"A","operation":"delivery","item":"Box","quantity":1}]}`

func newTestRouter(t *testing.T, burst int) (http.Handler, *stubPlanner, *observer.ObservedLogs, *prometheus.Registry) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.PlanRatePerMinute = 0.001
	cfg.Server.PlanBurst = burst

	core, logs := observer.New(zap.InfoLevel)
	reg := prometheus.NewRegistry()
	planner := &stubPlanner{}

	h := NewRouter(Deps{
		Config:         cfg,
		Catalog:        stubCatalog{},
		Planner:        planner,
		Log:            zap.New(core),
		Metrics:        obs.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return h, planner, logs, reg
}

func TestRouterServesHealthAndLogs(t *testing.T) {
	h, _, logs, _ := newTestRouter(t, 1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/health", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

func TestRouterRateLimitsPlans(t *testing.T) {
	h, planner, _, _ := newTestRouter(t, 1)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/plans", strings.NewReader(body)))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, 1, planner.calls)

	// Other endpoints are not limited.
	vehicles := httptest.NewRecorder()
	h.ServeHTTP(vehicles, httptest.NewRequest(http.MethodGet, "/vehicles", nil))
	assert.Equal(t, http.StatusOK, vehicles.Code)
}

func TestRouterExposesRequestMetrics(t *testing.T) {
	h, _, _, _ := newTestRouter(t, 1)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/vehicles", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dispatch_http_requests_total{path="/vehicles",status="200"} 1`)
}
