package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

// ShellRunner runs processes with os/exec, capturing stdout and stderr
// separately. Cancelling ctx kills the process.
type ShellRunner struct {
	// Dir is the working directory; empty means the server's.
	Dir string
	// Env is appended to the server environment.
	Env []string
}

var _ automation.ShellRunner = (*ShellRunner)(nil)

// NewShellRunner creates a runner using the server's working directory.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{}
}

func (r *ShellRunner) Run(ctx context.Context, c automation.ShellCommand) (automation.ShellResult, error) {
	cmd := exec.CommandContext(ctx, c.Binary, c.Args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := automation.ShellResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, ctx.Err()
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	default:
		return res, fmt.Errorf("failed to start %s: %w", c.Binary, err)
	}
}
