package milp

import "time"

type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusTimeLimit
	StatusInfeasible
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusTimeLimit:
		return "time_limit"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	}
	return "not_solved"
}

// Solution is what a solver reports back. Values is indexed by Var and is nil
// when the solver found no feasible assignment.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Solver    string
	Runtime   time.Duration
}

func (s *Solution) HasValues() bool { return s != nil && len(s.Values) > 0 }

func (s *Solution) Value(v Var) float64 {
	if s == nil || int(v) < 0 || int(v) >= len(s.Values) {
		return 0
	}
	return s.Values[v]
}

// ValuesFromNames maps solver output keyed by column name onto the model's
// column order. Names the solver omitted are zero.
func (m *Model) ValuesFromNames(named map[string]float64) []float64 {
	values := make([]float64, len(m.Vars))
	for name, x := range named {
		if v, ok := m.byName[name]; ok {
			values[v] = x
		}
	}
	return values
}
