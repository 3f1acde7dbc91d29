package snapshot

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
)

// ProcessProbe checks for and stops the application whose configuration is
// being replaced. Matching is by substring of the full command line.
type ProcessProbe interface {
	// Running reports whether any process matching name is alive.
	Running(ctx context.Context, name string) (bool, error)

	// Stop asks every process matching name to terminate. It does not wait.
	Stop(ctx context.Context, name string) error
}

// ExecProbe implements ProcessProbe with pgrep and signals. The calling
// process is never matched, so a store path containing the application
// name cannot make the tool stop itself.
type ExecProbe struct {
	self int
}

// NewExecProbe returns a probe that excludes the current process.
func NewExecProbe() *ExecProbe {
	return &ExecProbe{self: os.Getpid()}
}

// Running runs pgrep -f name.
func (p *ExecProbe) Running(ctx context.Context, name string) (bool, error) {
	pids, err := p.pids(ctx, name)
	if err != nil {
		return false, err
	}
	return len(pids) > 0, nil
}

// Stop sends SIGTERM to every matching process.
func (p *ExecProbe) Stop(ctx context.Context, name string) error {
	pids, err := p.pids(ctx, name)
	if err != nil {
		return err
	}

	var errs error
	for _, pid := range pids {
		process, err := os.FindProcess(pid)
		if err != nil {
			continue
		}
		if err := process.Signal(syscall.SIGTERM); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "signalling pid %d", pid))
		}
	}
	return errs
}

// pids returns the ids of processes whose command line contains name.
func (p *ExecProbe) pids(ctx context.Context, name string) ([]int, error) {
	if name == "" {
		return nil, nil
	}

	out, err := exec.CommandContext(ctx, "pgrep", "-f", name).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			// no match
			return nil, nil
		}
		return nil, errors.Wrap(err, "running pgrep")
	}

	var pids []int
	for _, field := range strings.Fields(string(out)) {
		pid, err := strconv.Atoi(field)
		if err != nil || pid == p.self {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}
