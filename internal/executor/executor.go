// Package executor runs external commands such as the archive extractor.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
)

// Exit statuses GNU timeout reports when it stops the wrapped command
const (
	timeoutExitCode     = 124
	timeoutKillExitCode = 137
)

// waitDelay bounds how long Wait blocks on pipes held open by orphans after
// the process was killed.
const waitDelay = 2 * time.Second

// Options configures an Executor
type Options struct {
	// TimeoutCommand is prefixed to every argv, e.g. ["timeout", "30"]
	TimeoutCommand []string
	Logger         *utils.Logger
}

// Executor runs argument vectors without a shell
type Executor struct {
	timeoutCommand []string
	logger         *utils.Logger
}

var _ domain.CommandRunner = (*Executor)(nil)

// New creates an Executor
func New(opts Options) *Executor {
	return &Executor{
		timeoutCommand: append([]string(nil), opts.TimeoutCommand...),
		logger:         utils.OrNop(opts.Logger),
	}
}

// Argv returns the full argument vector run for argv, wrapper included
func (e *Executor) Argv(argv ...string) []string {
	full := make([]string, 0, len(e.timeoutCommand)+len(argv))
	full = append(full, e.timeoutCommand...)
	return append(full, argv...)
}

// Run executes argv and succeeds only on a zero exit status. Failures are
// returned as *domain.ExecutionError with the captured output.
func (e *Executor) Run(ctx context.Context, argv ...string) (*domain.CommandResult, error) {
	full := e.Argv(argv...)
	if len(full) == 0 {
		return nil, &domain.ExecutionError{Kind: domain.ExecNotFound, Err: errors.New("empty command")}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, full[0], full[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	e.logger.Debug().Strs("command", full).Msg("Running command")

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err == nil {
		e.logger.Debug().Strs("command", full).Dur("duration", duration).Msg("Command succeeded")
		return &domain.CommandResult{
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
			Duration: duration,
		}, nil
	}

	execErr := e.classify(ctx, full, err)
	execErr.Stdout = stdout.String()
	execErr.Stderr = stderr.String()

	e.logger.Debug().
		Strs("command", full).
		Dur("duration", duration).
		Str("kind", execErr.Kind.String()).
		Int("code", execErr.Code).
		Msg("Command failed")
	return nil, execErr
}

func (e *Executor) classify(ctx context.Context, full []string, err error) *domain.ExecutionError {
	execErr := &domain.ExecutionError{Command: full, Code: -1, Err: err}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		execErr.Kind = domain.ExecTimedOut
		execErr.Err = ctx.Err()
		return execErr
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// the process never started
		execErr.Kind = domain.ExecNotFound
		return execErr
	}

	execErr.Code = exitErr.ExitCode()
	execErr.Kind = domain.ExecNonZeroExit
	if len(e.timeoutCommand) > 0 && ctx.Err() == nil {
		switch execErr.Code {
		case timeoutExitCode, timeoutKillExitCode, -1:
			execErr.Kind = domain.ExecTimedOut
		}
	}
	return execErr
}
