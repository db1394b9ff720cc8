package main

import (
	"context"
	"database/sql"
	"dispatch-route-service/internal/adapters/distance"
	"dispatch-route-service/internal/adapters/render"
	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/adapters/solver"
	"dispatch-route-service/internal/api"
	"dispatch-route-service/internal/calendar"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/platform/db"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"dispatch-route-service/internal/services"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (catalog store, geodesic distances, MILP solvers)
// behind ports and starts the HTTP server.
func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if !config.LoadDotEnv() {
		log.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load(config.Get("CONFIG_PATH", ""))
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	catalog, closeCatalog, err := openCatalog(cfg, log)
	if err != nil {
		log.Fatal("open catalog", zap.Error(err))
	}
	defer closeCatalog()

	provider, err := distance.FromConfig(cfg.Routing, log)
	if err != nil {
		log.Fatal("distance provider", zap.Error(err))
	}

	metrics := obs.Default()
	milpSolver, err := solver.FromConfig(cfg.Solver, log, metrics)
	if err != nil {
		log.Fatal("solver", zap.Error(err))
	}
	if err := milpSolver.Available(); err != nil {
		// The server still answers catalog requests; plans fail with 503.
		log.Warn("no milp solver available", zap.Error(err))
	}

	planner, err := services.NewPlanner(cfg, provider, milpSolver,
		services.WithLogger(log),
		services.WithMetrics(metrics),
	)
	if err != nil {
		log.Fatal("planner", zap.Error(err))
	}

	cal, err := calendar.Parse(cfg.Calendar.DayStart, cfg.Calendar.DayEnd, cfg.Calendar.LunchStart, cfg.Calendar.LunchEnd, cfg.Calendar.SkipWeekends)
	if err != nil {
		log.Fatal("calendar", zap.Error(err))
	}

	router := api.NewRouter(api.Deps{
		Config:         cfg,
		Catalog:        catalog,
		Planner:        planner,
		Timeline:       render.NewTimelinePNG(cal),
		Picking:        render.NewPickingListXLSX(),
		Log:            log,
		Metrics:        metrics,
		MetricsHandler: promhttp.Handler(),
	})

	// Write timeout leaves room for a full solver time limit plus decoding.
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Solver.TimeLimit + time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	log.Info("server listening", zap.String("addr", srv.Addr), zap.String("solver", milpSolver.Name()))
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

// openCatalog prefers Postgres when DATABASE_URL is set and falls back to the
// JSON seed file otherwise.
func openCatalog(cfg config.Config, log *zap.Logger) (ports.CatalogRepository, func(), error) {
	if strings.TrimSpace(cfg.Server.DatabaseURL) == "" {
		repo, err := repositories.NewJSONCatalogRepository(cfg.Server.CatalogPath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("catalog from file", zap.String("path", cfg.Server.CatalogPath))
		return repo, func() {}, nil
	}

	conn, err := db.Open(cfg.Server.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := initCatalog(conn, cfg.Server.CatalogPath); err != nil {
		conn.Close()
		return nil, nil, err
	}
	log.Info("catalog from postgres")
	return repositories.NewPostgresCatalogRepository(conn, log), func() { conn.Close() }, nil
}

// initCatalog creates the schema and, when the tables are empty, seeds them for local runs.
func initCatalog(conn *sql.DB, seedPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}

	var n int
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&n); err != nil {
		return fmt.Errorf("init catalog: count vehicles: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		return fmt.Errorf("init catalog: %w", err)
	}
	return nil
}
