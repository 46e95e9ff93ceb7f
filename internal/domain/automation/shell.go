package automation

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ShellCommand is one process invocation.
type ShellCommand struct {
	Binary string
	Args   []string
}

// ShellResult carries the captured output of a finished process.
type ShellResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ShellRunner runs a process to completion. A non-zero exit is reported in
// the result, not as an error; errors mean the process could not run.
type ShellRunner interface {
	Run(ctx context.Context, cmd ShellCommand) (ShellResult, error)
}

// ShellArgs is the powerShell script payload.
type ShellArgs struct {
	Command *string `json:"command"`
	Script  *string `json:"script"`
}

type shellExecutor struct {
	runner  ShellRunner
	binary  string
	enabled bool
	tempDir string
	logger  *zap.Logger
}

func (s *shellExecutor) execute(ctx context.Context, args ShellArgs) (string, error) {
	if !s.enabled {
		return "", validation("shell execution is disabled; start the server with ALLOW_SHELL=true")
	}
	hasCommand := args.Command != nil && *args.Command != ""
	hasScript := args.Script != nil && *args.Script != ""
	if hasCommand == hasScript {
		return "", validation("exactly one of command or script must be specified")
	}

	if hasCommand {
		return s.run(ctx, ShellCommand{
			Binary: s.binary,
			Args:   []string{"-NoProfile", "-NonInteractive", "-Command", *args.Command},
		})
	}

	f, err := os.CreateTemp(s.tempDir, "deskdriver-*.ps1")
	if err != nil {
		return "", fmt.Errorf("failed to create script file: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove script file", zap.String("path", path), zap.Error(err))
		}
	}()

	if _, err := f.WriteString(*args.Script); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write script file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write script file: %w", err)
	}

	return s.run(ctx, ShellCommand{
		Binary: s.binary,
		Args:   []string{"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-File", path},
	})
}

func (s *shellExecutor) run(ctx context.Context, cmd ShellCommand) (string, error) {
	s.logger.Debug("Running shell", zap.String("binary", cmd.Binary), zap.Strings("args", cmd.Args))

	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("shell execution cancelled: %w", ctx.Err())
		}
		return "", executionFailed(err, "failed to run %s", cmd.Binary)
	}
	if res.ExitCode != 0 {
		return "", executionFailed(nil, "shell exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return res.Stdout, nil
}
