package ports

import (
	"context"
	"dispatch-route-service/internal/milp"
	"errors"
	"time"
)

// ErrSolverUnavailable means no configured solver could run the model.
var ErrSolverUnavailable = errors.New("milp solver unavailable")

// Contract for MILP backends. Solve reports infeasible or time-limited
// outcomes through Solution.Status; an error means the solver itself failed.
type MILPSolver interface {
	Name() string
	// Return nil when the backend can be invoked on this host.
	Available() error
	Solve(ctx context.Context, model *milp.Model, limit time.Duration) (*milp.Solution, error)
}
