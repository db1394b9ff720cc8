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
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Highs runs the HiGHS command line solver.
type Highs struct {
	binary  string
	workDir string
	log     *zap.Logger
}

func NewHighs(binary, workDir string, log *zap.Logger) *Highs {
	if log == nil {
		log = zap.NewNop()
	}
	if binary == "" {
		binary = "highs"
	}
	return &Highs{binary: binary, workDir: workDir, log: log}
}

func (h *Highs) Name() string { return "highs" }

func (h *Highs) Available() error {
	_, err := lookPath(h.Name(), h.binary)
	return err
}

func (h *Highs) Solve(ctx context.Context, model *milp.Model, limit time.Duration) (sol *milp.Solution, err error) {
	defer obs.Time(ctx, h.log, "solver.highs")(&err)

	bin, err := lookPath(h.Name(), h.binary)
	if err != nil {
		return nil, err
	}

	dir, lpPath, err := prepare(h.workDir, model)
	if err != nil {
		return nil, fmt.Errorf("highs: %w", err)
	}
	defer os.RemoveAll(dir)

	solPath := filepath.Join(dir, "model.sol")
	run := &processRun{binary: bin, dir: dir}
	err = run.exec(ctx, limit,
		"--model_file", lpPath,
		"--solution_file", solPath,
		"--time_limit", seconds(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("highs: %w", err)
	}

	f, err := os.Open(solPath)
	if err != nil {
		status := parseHighsLogStatus(run.stdout.String())
		if status == milp.StatusNotSolved {
			return nil, fmt.Errorf("highs: no solution file: %w", err)
		}
		return &milp.Solution{Status: status, Solver: h.Name(), Runtime: run.duration}, nil
	}
	defer f.Close()

	parsed, err := parseHighsSolution(f)
	if err != nil {
		return nil, fmt.Errorf("highs: %w", err)
	}

	sol = &milp.Solution{Status: parsed.status, Solver: h.Name(), Runtime: run.duration}
	if parsed.feasible && len(parsed.values) > 0 {
		sol.Values = model.ValuesFromNames(parsed.values)
		sol.Objective = model.ObjectiveValue(sol.Values)
	}
	return sol, nil
}

type highsSolution struct {
	status   milp.Status
	feasible bool
	values   map[string]float64
}

// parseHighsSolution reads the "raw" solution file written by --solution_file.
func parseHighsSolution(r io.Reader) (highsSolution, error) {
	out := highsSolution{values: make(map[string]float64)}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	const (
		stateHeader = iota
		stateStatus
		statePrimal
		stateColumns
		stateDone
	)
	state := stateHeader
	remaining := 0

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		switch state {
		case stateHeader:
			if line == "Model status" {
				state = stateStatus
			}
		case stateStatus:
			out.status = highsStatus(line)
			state = statePrimal
		case statePrimal:
			switch {
			case line == "# Primal solution values":
			case line == "Feasible":
				out.feasible = true
			case line == "Infeasible" || line == "None":
				out.feasible = false
			case strings.HasPrefix(line, "# Columns"):
				n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "# Columns")))
				if err != nil {
					return out, fmt.Errorf("parse solution: bad column count %q", line)
				}
				remaining = n
				state = stateColumns
			}
		case stateColumns:
			if remaining == 0 || strings.HasPrefix(line, "#") {
				state = stateDone
				break
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return out, fmt.Errorf("parse solution: bad column line %q", line)
			}
			v, err := strconv.ParseFloat(fields[len(fields)-1], 64)
			if err != nil {
				return out, fmt.Errorf("parse solution: bad value in %q: %w", line, err)
			}
			out.values[fields[0]] = v
			remaining--
		}
		if state == stateDone {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("parse solution: %w", err)
	}
	if state == stateHeader {
		return out, fmt.Errorf("parse solution: missing model status")
	}
	return out, nil
}

var highsLogStatus = regexp.MustCompile(`(?m)^Model\s+status\s*:\s*(.+)$`)

func parseHighsLogStatus(stdout string) milp.Status {
	m := highsLogStatus.FindStringSubmatch(stdout)
	if m == nil {
		return milp.StatusNotSolved
	}
	return highsStatus(m[1])
}

func highsStatus(s string) milp.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "optimal":
		return milp.StatusOptimal
	case "time limit reached":
		return milp.StatusTimeLimit
	case "infeasible", "primal infeasible or unbounded":
		return milp.StatusInfeasible
	case "unbounded":
		return milp.StatusUnbounded
	}
	return milp.StatusNotSolved
}
