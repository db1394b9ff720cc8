// Command planner runs one optimization from a JSON request file and writes
// the result, and optionally the timeline chart and picking list, to disk.
package main

import (
	"context"
	"dispatch-route-service/internal/adapters/distance"
	"dispatch-route-service/internal/adapters/render"
	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/adapters/solver"
	"dispatch-route-service/internal/api/dto"
	"dispatch-route-service/internal/calendar"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/ports"
	"dispatch-route-service/internal/services"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"go.uber.org/zap"
)

type options struct {
	configPath  string
	catalogPath string
	inPath      string
	outPath     string
	pngPath     string
	xlsxPath    string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.Get("CONFIG_PATH", ""), "YAML config file")
	flag.StringVar(&opts.catalogPath, "catalog", "", "catalog JSON (defaults to server.catalog_path)")
	flag.StringVar(&opts.inPath, "in", "", "plan request JSON, - for stdin")
	flag.StringVar(&opts.outPath, "out", "-", "result JSON, - for stdout")
	flag.StringVar(&opts.pngPath, "png", "", "write the timeline chart here")
	flag.StringVar(&opts.xlsxPath, "xlsx", "", "write the picking list here")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, log); err != nil {
		log.Error("planner failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log *zap.Logger) error {
	config.LoadDotEnv()
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.catalogPath == "" {
		opts.catalogPath = cfg.Server.CatalogPath
	}

	req, err := readRequest(opts.inPath)
	if err != nil {
		return err
	}
	seed, err := repositories.LoadCatalogSeed(opts.catalogPath)
	if err != nil {
		return err
	}
	svcReq, err := buildRequest(ctx, repositories.NewCatalogFromSeed(seed), req)
	if err != nil {
		return err
	}

	provider, err := distance.FromConfig(cfg.Routing, log)
	if err != nil {
		return err
	}
	milpSolver, err := solver.FromConfig(cfg.Solver, log, nil)
	if err != nil {
		return err
	}
	planner, err := services.NewPlanner(cfg, provider, milpSolver, services.WithLogger(log))
	if err != nil {
		return err
	}

	res, err := planner.Plan(ctx, svcReq)
	if err != nil {
		return err
	}
	log.Info("plan finished",
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
		zap.Float64("objective", res.Objective),
	)

	if err := writeTo(opts.outPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(dto.NewPlanResponse(res))
	}); err != nil {
		return err
	}

	if !res.HasSchedule() {
		if opts.pngPath != "" || opts.xlsxPath != "" {
			log.Warn("no routes to draw", zap.String("status", string(res.Status)))
		}
		return nil
	}

	if opts.pngPath != "" {
		cal, err := calendar.Parse(cfg.Calendar.DayStart, cfg.Calendar.DayEnd, cfg.Calendar.LunchStart, cfg.Calendar.LunchEnd, cfg.Calendar.SkipWeekends)
		if err != nil {
			return err
		}
		chart := render.NewTimelinePNG(cal)
		if err := writeTo(opts.pngPath, func(w io.Writer) error { return chart.RenderTimeline(w, res.Events) }); err != nil {
			return err
		}
	}
	if opts.xlsxPath != "" {
		picking := render.NewPickingListXLSX()
		if err := writeTo(opts.xlsxPath, func(w io.Writer) error { return picking.WritePickingList(w, res.Vehicles) }); err != nil {
			return err
		}
	}
	return nil
}

func readRequest(path string) (dto.PlanRequest, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return dto.PlanRequest{}, fmt.Errorf("read request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req dto.PlanRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return dto.PlanRequest{}, fmt.Errorf("read request: parse json: %w", err)
	}
	return req, nil
}

// buildRequest resolves plates against the catalog. No plates means the whole fleet.
func buildRequest(ctx context.Context, cat ports.CatalogRepository, req dto.PlanRequest) (services.PlanRequest, error) {
	tasks, err := dto.ToTasks(req.Tasks)
	if err != nil {
		return services.PlanRequest{}, fmt.Errorf("build request: %w", err)
	}
	fleet, err := cat.ListVehicles(ctx)
	if err != nil {
		return services.PlanRequest{}, fmt.Errorf("build request: %w", err)
	}
	items, err := cat.ListItems(ctx)
	if err != nil {
		return services.PlanRequest{}, fmt.Errorf("build request: %w", err)
	}

	vehicles := fleet
	if len(req.Plates) > 0 {
		byPlate := make(map[string]domain.Vehicle, len(fleet))
		for _, v := range fleet {
			byPlate[v.Plate] = v
		}
		vehicles = nil
		for _, p := range req.Plates {
			v, ok := byPlate[strings.TrimSpace(p)]
			if !ok {
				return services.PlanRequest{}, fmt.Errorf("build request: unknown plate %q", p)
			}
			vehicles = append(vehicles, v)
		}
	}

	out := services.PlanRequest{
		Vehicles:          vehicles,
		Items:             items,
		Tasks:             tasks,
		FinalDestinations: req.FinalDestinations,
	}
	if req.Now != nil {
		out.Now = *req.Now
	}
	return out, nil
}

func writeTo(path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
