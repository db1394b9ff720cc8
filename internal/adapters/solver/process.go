// Package solver runs MILP models through external solver executables.
package solver

import (
	"bytes"
	"context"
	"dispatch-route-service/internal/milp"
	"dispatch-route-service/internal/ports"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Extra wall time granted to the process beyond the solver's own limit before
// it is killed.
const killGrace = 30 * time.Second

const outputTail = 2048

type processRun struct {
	binary   string
	dir      string
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	duration time.Duration
}

// lookPath resolves a solver binary, wrapping failures as unavailability.
func lookPath(name, binary string) (string, error) {
	p, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %v", name, ports.ErrSolverUnavailable, err)
	}
	return p, nil
}

// prepare writes the model as model.lp into a fresh temporary directory.
func prepare(workDir string, model *milp.Model) (dir string, lpPath string, err error) {
	dir, err = os.MkdirTemp(workDir, "milp-*")
	if err != nil {
		return "", "", fmt.Errorf("create work dir: %w", err)
	}

	lpPath = filepath.Join(dir, "model.lp")
	f, err := os.Create(lpPath)
	if err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("create lp file: %w", err)
	}
	defer f.Close()

	if err := model.WriteLP(f); err != nil {
		os.RemoveAll(dir)
		return "", "", err
	}
	return dir, lpPath, nil
}

func (r *processRun) exec(ctx context.Context, limit time.Duration, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, limit+killGrace)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.dir
	cmd.Stdout = &r.stdout
	cmd.Stderr = &r.stderr

	start := time.Now()
	err := cmd.Run()
	r.duration = time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("run %s: %w", filepath.Base(r.binary), ctxErr)
	}
	if err != nil {
		return fmt.Errorf("run %s: %w: %s", filepath.Base(r.binary), err, tail(r.stderr.Bytes(), r.stdout.Bytes()))
	}
	return nil
}

func tail(bufs ...[]byte) string {
	var all []byte
	for _, b := range bufs {
		all = append(all, b...)
	}
	if len(all) > outputTail {
		all = all[len(all)-outputTail:]
	}
	return string(bytes.TrimSpace(all))
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%d", int64(d.Round(time.Second)/time.Second))
}
