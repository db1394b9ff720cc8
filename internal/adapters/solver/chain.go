package solver

import (
	"context"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/milp"
	"dispatch-route-service/internal/platform/obs"
	"dispatch-route-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Chain tries a primary solver and, if it cannot run the model, one fallback
// with the same time budget.
type Chain struct {
	primary  ports.MILPSolver
	fallback ports.MILPSolver
	log      *zap.Logger
	metrics  *obs.Metrics
}

func NewChain(primary, fallback ports.MILPSolver, log *zap.Logger, metrics *obs.Metrics) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{primary: primary, fallback: fallback, log: log, metrics: metrics}
}

func (c *Chain) Name() string {
	if c.fallback == nil {
		return c.primary.Name()
	}
	return c.primary.Name() + "+" + c.fallback.Name()
}

func (c *Chain) Available() error {
	err := c.primary.Available()
	if err == nil || c.fallback == nil {
		return err
	}
	if ferr := c.fallback.Available(); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}

// Solve returns the first solver outcome. Infeasible or time-limited outcomes
// are results, not failures, so they never trigger the fallback.
func (c *Chain) Solve(ctx context.Context, model *milp.Model, limit time.Duration) (*milp.Solution, error) {
	sol, perr := c.try(ctx, c.primary, model, limit)
	if perr == nil {
		return sol, nil
	}
	if ctx.Err() != nil || c.fallback == nil {
		return nil, fmt.Errorf("solve: %w", perr)
	}

	c.log.Warn("primary solver failed, using fallback",
		zap.String("run_id", obs.RunID(ctx)),
		zap.String("primary", c.primary.Name()),
		zap.String("fallback", c.fallback.Name()),
		zap.Error(perr),
	)
	c.metrics.ObserveFallback()

	sol, ferr := c.try(ctx, c.fallback, model, limit)
	if ferr == nil {
		return sol, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("solve: %w", ferr)
	}

	return nil, fmt.Errorf("solve: %w: %w", ports.ErrSolverUnavailable, errors.Join(perr, ferr))
}

func (c *Chain) try(ctx context.Context, s ports.MILPSolver, model *milp.Model, limit time.Duration) (*milp.Solution, error) {
	if err := s.Available(); err != nil {
		return nil, err
	}
	sol, err := s.Solve(ctx, model, limit)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveSolve(s.Name(), sol.Status.String(), sol.Runtime)
	return sol, nil
}

// New builds the backend registered under name.
func New(name, binary, workDir string, log *zap.Logger) (ports.MILPSolver, error) {
	switch name {
	case "highs":
		return NewHighs(binary, workDir, log), nil
	case "cbc":
		return NewCBC(binary, workDir, log), nil
	}
	return nil, fmt.Errorf("new solver: unknown backend %q", name)
}

// FromConfig builds the primary backend with the optional fallback behind it.
func FromConfig(cfg config.SolverConfig, log *zap.Logger, metrics *obs.Metrics) (*Chain, error) {
	primary, err := New(cfg.Primary, cfg.Binary(cfg.Primary), cfg.WorkDir, log)
	if err != nil {
		return nil, err
	}

	var fallback ports.MILPSolver
	if cfg.Fallback != "" && cfg.Fallback != cfg.Primary {
		if fallback, err = New(cfg.Fallback, cfg.Binary(cfg.Fallback), cfg.WorkDir, log); err != nil {
			return nil, err
		}
	}
	return NewChain(primary, fallback, log, metrics), nil
}
