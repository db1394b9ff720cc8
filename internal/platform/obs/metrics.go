package obs

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	planRuns        *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	solverFallbacks prometheus.Counter
	httpRequests    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		planRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_plan_runs_total",
			Help: "Optimization runs by final status.",
		}, []string{"status"}),
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_solver_duration_seconds",
			Help:    "Wall time spent inside the MILP solver.",
			Buckets: []float64{0.5, 1, 5, 15, 60, 180, 300, 600, 900},
		}, []string{"solver", "status"}),
		solverFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_solver_fallbacks_total",
			Help: "Times the fallback solver was used.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_http_requests_total",
			Help: "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
	}

	if reg != nil {
		reg.MustRegister(m.planRuns, m.solveDuration, m.solverFallbacks, m.httpRequests)
	}
	return m
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns metrics registered on the global Prometheus registry.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func (m *Metrics) ObservePlan(status string) {
	if m == nil {
		return
	}
	m.planRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveSolve(solver, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.solveDuration.WithLabelValues(solver, status).Observe(d.Seconds())
}

func (m *Metrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.solverFallbacks.Inc()
}

func (m *Metrics) ObserveRequest(path string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}
