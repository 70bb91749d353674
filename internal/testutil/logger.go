package testutil

import (
	"io"
	"testing"

	"github.com/quantmind-br/remotetheme-go/internal/utils"
	"github.com/rs/zerolog"
)

// NewTestLogger creates a debug-level logger that discards its output
func NewTestLogger(t *testing.T) *utils.Logger {
	t.Helper()

	zlogger := zerolog.New(io.Discard).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Str("test", t.Name()).
		Logger()

	return &utils.Logger{Logger: zlogger}
}

// NewCapturingLogger creates a debug-level JSON logger writing to w
func NewCapturingLogger(w io.Writer) *utils.Logger {
	return utils.NewLogger(utils.LoggerOptions{
		Level:  "debug",
		Format: "json",
		Output: w,
	})
}
