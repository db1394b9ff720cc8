package api

import (
	"dispatch-route-service/internal/api/handlers"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps are the collaborators the HTTP layer needs. MetricsHandler is optional.
type Deps struct {
	Config         config.Config
	Catalog        ports.CatalogRepository
	Planner        handlers.Planner
	Timeline       ports.TimelineRenderer
	Picking        ports.PickingListWriter
	Log            *zap.Logger
	Metrics        *obs.Metrics
	MetricsHandler http.Handler
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	vehicleHandler := &handlers.VehicleHandler{Repo: d.Catalog, Config: d.Config}
	planHandler := &handlers.PlanHandler{
		Catalog:          d.Catalog,
		Planner:          d.Planner,
		TimelineRenderer: d.Timeline,
		Picking:          d.Picking,
	}

	// Plan endpoints share one limiter: each request holds a solver for minutes.
	limiter := rate.NewLimiter(rate.Limit(d.Config.Server.PlanRatePerMinute/60), d.Config.Server.PlanBurst)
	limited := func(h http.HandlerFunc) http.Handler { return rateLimitMiddleware(limiter, h) }

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/vehicles", vehicleHandler.List)
	mux.HandleFunc("/fleet/preview", vehicleHandler.Preview)
	mux.Handle("/plans", limited(planHandler.Plan))
	mux.Handle("/plans/timeline.png", limited(planHandler.Timeline))
	mux.Handle("/plans/picking.xlsx", limited(planHandler.PickingList))
	if d.MetricsHandler != nil {
		mux.Handle("/metrics", d.MetricsHandler)
	}

	return loggingMiddleware(d.Log, d.Metrics, mux)
}
