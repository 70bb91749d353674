package executor

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestArgv(t *testing.T) {
	e := New(Options{TimeoutCommand: []string{"timeout", "30"}})
	assert.Equal(t,
		[]string{"timeout", "30", "unzip", "a.zip", "-d", "/tmp/x"},
		e.Argv("unzip", "a.zip", "-d", "/tmp/x"))

	plain := New(Options{})
	assert.Equal(t, []string{"unzip", "a.zip"}, plain.Argv("unzip", "a.zip"))
}

func TestArgv_DoesNotAliasOptions(t *testing.T) {
	wrapper := []string{"timeout", "30"}
	e := New(Options{TimeoutCommand: wrapper})
	wrapper[1] = "1"
	assert.Equal(t, []string{"timeout", "30", "true"}, e.Argv("true"))
}

func TestRun_Success(t *testing.T) {
	requireShell(t)
	e := New(Options{})

	res, err := e.Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRun_ArgumentsAreNotShellExpanded(t *testing.T) {
	requireShell(t)
	e := New(Options{})

	res, err := e.Run(context.Background(), "sh", "-c", `printf '%s' "$1"`, "sh", "$(echo injected); rm -rf /")
	require.NoError(t, err)
	assert.Equal(t, "$(echo injected); rm -rf /", res.Stdout)
}

func TestRun_NonZeroExit(t *testing.T) {
	requireShell(t)
	e := New(Options{})

	_, err := e.Run(context.Background(), "sh", "-c", "echo 'bad zip' >&2; exit 9")
	require.Error(t, err)

	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, domain.ExecNonZeroExit, execErr.Kind)
	assert.Equal(t, 9, execErr.Code)
	assert.Equal(t, "bad zip\n", execErr.Stderr)
	assert.Contains(t, err.Error(), "exited with code 9: bad zip")
	assert.False(t, domain.IsTimeout(err))
}

func TestRun_Exit124WithoutWrapperIsNonZero(t *testing.T) {
	requireShell(t)
	e := New(Options{})

	_, err := e.Run(context.Background(), "sh", "-c", "exit 124")
	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, domain.ExecNonZeroExit, execErr.Kind)
}

func TestRun_WrapperReportsTimeout(t *testing.T) {
	requireShell(t)
	// the wrapper receives the wrapped argv as positional parameters
	e := New(Options{TimeoutCommand: []string{"sh", "-c", "exit 124", "wrapper"}})

	_, err := e.Run(context.Background(), "unzip", "a.zip", "-d", "dest")
	require.Error(t, err)

	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, domain.ExecTimedOut, execErr.Kind)
	assert.True(t, domain.IsTimeout(err))
	assert.Equal(t, []string{"sh", "-c", "exit 124", "wrapper", "unzip", "a.zip", "-d", "dest"}, execErr.Command)
}

func TestRun_GNUTimeoutWrapper(t *testing.T) {
	if _, err := exec.LookPath("timeout"); err != nil {
		t.Skip("timeout not available")
	}
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	e := New(Options{TimeoutCommand: []string{"timeout", "0.2"}})

	_, err := e.Run(context.Background(), "sleep", "5")
	require.Error(t, err)
	assert.True(t, domain.IsTimeout(err))
}

func TestRun_ContextDeadline(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	e := New(Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Run(ctx, "sleep", "5")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)

	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, domain.ExecTimedOut, execErr.Kind)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestRun_NotFound(t *testing.T) {
	e := New(Options{})

	_, err := e.Run(context.Background(), "remotetheme-definitely-missing-binary", "x")
	require.Error(t, err)

	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, domain.ExecNotFound, execErr.Kind)
	assert.True(t, errors.Is(err, exec.ErrNotFound))
}

func TestRun_EmptyCommand(t *testing.T) {
	e := New(Options{})

	_, err := e.Run(context.Background())
	var execErr *domain.ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, domain.ExecNotFound, execErr.Kind)
}
