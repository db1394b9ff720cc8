package solver

import (
	"bufio"
	"context"
	"dispatch-route-service/internal/milp"
	"dispatch-route-service/internal/platform/obs"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CBC runs the COIN-OR branch and cut solver.
type CBC struct {
	binary  string
	workDir string
	log     *zap.Logger
}

func NewCBC(binary, workDir string, log *zap.Logger) *CBC {
	if log == nil {
		log = zap.NewNop()
	}
	if binary == "" {
		binary = "cbc"
	}
	return &CBC{binary: binary, workDir: workDir, log: log}
}

func (c *CBC) Name() string { return "cbc" }

func (c *CBC) Available() error {
	_, err := lookPath(c.Name(), c.binary)
	return err
}

func (c *CBC) Solve(ctx context.Context, model *milp.Model, limit time.Duration) (sol *milp.Solution, err error) {
	defer obs.Time(ctx, c.log, "solver.cbc")(&err)

	bin, err := lookPath(c.Name(), c.binary)
	if err != nil {
		return nil, err
	}

	dir, lpPath, err := prepare(c.workDir, model)
	if err != nil {
		return nil, fmt.Errorf("cbc: %w", err)
	}
	defer os.RemoveAll(dir)

	solPath := filepath.Join(dir, "model.sol")
	run := &processRun{binary: bin, dir: dir}
	err = run.exec(ctx, limit, lpPath, "-sec", seconds(limit), "-solve", "-solu", solPath)
	if err != nil {
		return nil, fmt.Errorf("cbc: %w", err)
	}

	f, err := os.Open(solPath)
	if err != nil {
		return nil, fmt.Errorf("cbc: no solution file: %w", err)
	}
	defer f.Close()

	parsed, err := parseCBCSolution(f)
	if err != nil {
		return nil, fmt.Errorf("cbc: %w", err)
	}

	sol = &milp.Solution{Status: parsed.status, Solver: c.Name(), Runtime: run.duration}
	if parsed.hasIncumbent {
		sol.Values = model.ValuesFromNames(parsed.values)
		sol.Objective = model.ObjectiveValue(sol.Values)
	}
	return sol, nil
}

type cbcSolution struct {
	status       milp.Status
	hasIncumbent bool
	values       map[string]float64
}

// parseCBCSolution reads the file written by "-solu". The first line carries
// the status; the rest lists non-zero columns as "index name value reduced".
func parseCBCSolution(r io.Reader) (cbcSolution, error) {
	out := cbcSolution{values: make(map[string]float64)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return out, fmt.Errorf("parse solution: %w", err)
		}
		return out, fmt.Errorf("parse solution: empty file")
	}
	header := strings.ToLower(strings.TrimSpace(sc.Text()))
	out.status, out.hasIncumbent = cbcStatus(header)

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) > 0 && fields[0] == "**" {
			fields = fields[1:]
		}
		if len(fields) < 3 {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return out, fmt.Errorf("parse solution: bad value in %q: %w", sc.Text(), err)
		}
		out.values[fields[1]] = v
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("parse solution: %w", err)
	}
	return out, nil
}

func cbcStatus(header string) (milp.Status, bool) {
	switch {
	case strings.HasPrefix(header, "optimal"):
		return milp.StatusOptimal, true
	case strings.Contains(header, "infeasible"):
		return milp.StatusInfeasible, false
	case strings.Contains(header, "unbounded"):
		return milp.StatusUnbounded, false
	case strings.HasPrefix(header, "stopped on time"):
		return milp.StatusTimeLimit, strings.Contains(header, "objective value") &&
			!strings.Contains(header, "no integer")
	}
	return milp.StatusNotSolved, false
}
