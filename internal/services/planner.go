package services

import (
	"context"
	"dispatch-route-service/internal/calendar"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/domain"
	"dispatch-route-service/internal/milp"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlanRequest is one optimization invocation. It is read, never modified.
type PlanRequest struct {
	Vehicles []domain.Vehicle `validate:"dive"`
	Items    []domain.Item    `validate:"dive"`
	Tasks    []domain.Task    `validate:"dive"`
	// FinalDestinations maps the plate of every non-returning vehicle to the
	// task location where it ends its route.
	FinalDestinations map[string]string
	// Now is the invocation time; zero means the planner clock.
	Now time.Time
}

type Planner struct {
	cfg      config.Config
	cal      calendar.Calendar
	loc      *time.Location
	distance ports.DistanceProvider
	solver   ports.MILPSolver
	validate *validator.Validate

	log     *zap.Logger
	metrics *obs.Metrics
	now     func() time.Time
}

type Option func(*Planner)

func WithLogger(log *zap.Logger) Option {
	return func(p *Planner) {
		if log != nil {
			p.log = log
		}
	}
}

func WithMetrics(m *obs.Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPlanner(cfg config.Config, distance ports.DistanceProvider, solver ports.MILPSolver, opts ...Option) (*Planner, error) {
	if distance == nil || solver == nil {
		return nil, errors.New("new planner: distance provider and solver are required")
	}

	c := cfg.Calendar
	cal, err := calendar.Parse(c.DayStart, c.DayEnd, c.LunchStart, c.LunchEnd, c.SkipWeekends)
	if err != nil {
		return nil, fmt.Errorf("new planner: %w", err)
	}
	loc := time.UTC
	if c.Timezone != "" {
		if loc, err = time.LoadLocation(c.Timezone); err != nil {
			return nil, fmt.Errorf("new planner: load timezone: %w", err)
		}
	}

	p := &Planner{
		cfg:      cfg,
		cal:      cal,
		loc:      loc,
		distance: distance,
		solver:   solver,
		validate: validator.New(),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Plan runs one optimization end to end. Infeasible and time-limited outcomes
// are reported through the result status; an error means the run could not
// produce a status at all.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (res *domain.PlanResult, err error) {
	runID := uuid.NewString()
	ctx = obs.WithRunID(ctx, runID)
	defer obs.Time(ctx, p.log, "planner.plan")(&err)
	defer func() {
		if err != nil {
			p.metrics.ObservePlan("error")
		}
	}()

	if err := p.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("plan: %w: %v", domain.ErrInvalidInput, err)
	}
	if len(req.Tasks) == 0 {
		return nil, fmt.Errorf("plan: %w", domain.ErrNoDemand)
	}

	catalog := domain.NewCatalog(req.Items, p.cfg.PickupKindList())
	prob, err := Normalize(ctx, p.cfg, NormalizeInput{
		Vehicles:          req.Vehicles,
		Tasks:             req.Tasks,
		Catalog:           catalog,
		FinalDestinations: req.FinalDestinations,
	}, p.distance)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if len(prob.Demands) == 0 {
		return nil, fmt.Errorf("plan: %w: all tasks cancel out", domain.ErrNoDemand)
	}
	if bad := prob.UnservableServices(); len(bad) > 0 {
		return nil, fmt.Errorf("plan: %w: %s", domain.ErrIncompatibleItem, strings.Join(bad, ", "))
	}
	if err := prob.BigM.Validate(prob); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	built := BuildModel(prob)
	p.log.Info("model built",
		zap.String("run_id", runID),
		zap.Int("nodes", prob.NumNodes()),
		zap.Int("vehicles", len(prob.Vehicles)),
		zap.Int("max_trips", prob.MaxTrips),
		zap.Int("vars", built.Model.NumVars()),
		zap.Int("constraints", built.Model.NumConstraints()),
	)

	sol, err := p.solver.Solve(ctx, built.Model, p.cfg.Solver.TimeLimit)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	now := req.Now
	if now.IsZero() {
		now = p.now()
	}
	res = &domain.PlanResult{
		RunID:          runID,
		Status:         domain.Status(sol.Status.String()),
		Solver:         sol.Solver,
		Runtime:        sol.Runtime,
		OperationStart: p.cal.OperationStart(now.In(p.loc)),
	}

	if hasIncumbent(sol) {
		res.Objective = built.Model.ObjectiveValue(sol.Values)
		res.Costs = Costs(built, sol)
		res.Vehicles = Decode(built, sol)
		res.Violations = Audit(built, sol)
		for _, v := range res.Violations {
			p.log.Warn("plan audit", zap.String("run_id", runID), zap.String("violation", v))
		}

		sched := Scheduler{Calendar: p.cal, Depot: prob.Nodes[0].Name, ResupplyHours: prob.ResupplyHours}
		res.Events = sched.Schedule(res.OperationStart, res.Vehicles)
	}

	p.metrics.ObservePlan(string(res.Status))
	return res, nil
}

func hasIncumbent(sol *milp.Solution) bool {
	return (sol.Status == milp.StatusOptimal || sol.Status == milp.StatusTimeLimit) && sol.HasValues()
}
