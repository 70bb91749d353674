package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrTimeout indicates a network or process timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrInvalidTheme indicates a theme reference could not be parsed
	ErrInvalidTheme = errors.New("invalid theme reference")

	// ErrInvalidRoot indicates a path cannot be used as a theme root
	ErrInvalidRoot = errors.New("invalid theme root")

	// ErrRootAlreadySet indicates the theme root was already resolved
	ErrRootAlreadySet = errors.New("theme root already set")

	// ErrRefNotFound indicates a git ref does not exist on the remote
	ErrRefNotFound = errors.New("git ref not found")

	// ErrUnknownExtractor indicates an unsupported extraction method
	ErrUnknownExtractor = errors.New("unknown extraction method")
)

// DownloadErrorKind classifies archive download failures
type DownloadErrorKind int

const (
	// DownloadTimeout means the transport timed out
	DownloadTimeout DownloadErrorKind = iota + 1
	// DownloadTransportFailure means no response was received
	DownloadTransportFailure
	// DownloadHTTPStatus means the server answered with a non-200 status
	DownloadHTTPStatus
)

func (k DownloadErrorKind) String() string {
	switch k {
	case DownloadTimeout:
		return "timeout"
	case DownloadTransportFailure:
		return "transport_failure"
	case DownloadHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// DownloadError represents a failed archive download
type DownloadError struct {
	Kind          DownloadErrorKind
	URL           string
	Code          int
	StatusMessage string
	Detail        string
	Err           error
}

func (e *DownloadError) Error() string {
	switch e.Kind {
	case DownloadTimeout:
		return fmt.Sprintf("download %s: request timed out", e.URL)
	case DownloadHTTPStatus:
		return fmt.Sprintf("download %s: request failed with %d %s", e.URL, e.Code, e.StatusMessage)
	default:
		return fmt.Sprintf("download %s: %s", e.URL, e.Detail)
	}
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Is reports timeouts as ErrTimeout
func (e *DownloadError) Is(target error) bool {
	return target == ErrTimeout && e.Kind == DownloadTimeout
}

// NewTimeoutError creates a DownloadError for a timed out transfer
func NewTimeoutError(url string, err error) *DownloadError {
	return &DownloadError{Kind: DownloadTimeout, URL: url, Err: err}
}

// NewTransportError creates a DownloadError for a transfer that got no response
func NewTransportError(url, detail string, err error) *DownloadError {
	return &DownloadError{Kind: DownloadTransportFailure, URL: url, Detail: detail, Err: err}
}

// NewHTTPStatusError creates a DownloadError for a non-200 response
func NewHTTPStatusError(url string, code int, statusMessage string) *DownloadError {
	return &DownloadError{Kind: DownloadHTTPStatus, URL: url, Code: code, StatusMessage: statusMessage}
}

// ExecutionErrorKind classifies external command failures
type ExecutionErrorKind int

const (
	// ExecNonZeroExit means the command finished with a non-zero status
	ExecNonZeroExit ExecutionErrorKind = iota + 1
	// ExecTimedOut means the command was killed for exceeding its time budget
	ExecTimedOut
	// ExecNotFound means the executable could not be started
	ExecNotFound
)

func (k ExecutionErrorKind) String() string {
	switch k {
	case ExecNonZeroExit:
		return "non_zero_exit"
	case ExecTimedOut:
		return "timed_out"
	case ExecNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ExecutionError represents a failed external command
type ExecutionError struct {
	Kind    ExecutionErrorKind
	Command []string
	Code    int
	Stdout  string
	Stderr  string
	Err     error
}

func (e *ExecutionError) Error() string {
	cmd := strings.Join(e.Command, " ")
	switch e.Kind {
	case ExecTimedOut:
		return fmt.Sprintf("command %q timed out", cmd)
	case ExecNotFound:
		return fmt.Sprintf("command %q could not be started: %v", cmd, e.Err)
	default:
		output := strings.TrimSpace(e.Stdout + e.Stderr)
		if output == "" {
			return fmt.Sprintf("command %q exited with code %d", cmd, e.Code)
		}
		return fmt.Sprintf("command %q exited with code %d: %s", cmd, e.Code, output)
	}
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports timeouts as ErrTimeout
func (e *ExecutionError) Is(target error) bool {
	return target == ErrTimeout && e.Kind == ExecTimedOut
}

// PathResolutionReason explains why the extracted root could not be determined
type PathResolutionReason string

const (
	ReasonEmpty        PathResolutionReason = "extraction produced no entries"
	ReasonAmbiguous    PathResolutionReason = "extraction produced more than one top-level entry"
	ReasonNotDirectory PathResolutionReason = "top-level entry is not a directory"
)

// PathResolutionError represents a failure to find the theme root after extraction
type PathResolutionError struct {
	Dir     string
	Reason  PathResolutionReason
	Entries []string
}

func (e *PathResolutionError) Error() string {
	if len(e.Entries) > 0 {
		return fmt.Sprintf("resolve theme root in %s: %s (%s)", e.Dir, e.Reason, strings.Join(e.Entries, ", "))
	}
	return fmt.Sprintf("resolve theme root in %s: %s", e.Dir, e.Reason)
}

// ThemeError represents a failure in one stage of resolving a theme
type ThemeError struct {
	Theme string
	Stage string
	Err   error
}

func (e *ThemeError) Error() string {
	return fmt.Sprintf("remote theme %s: %s failed: %v", e.Theme, e.Stage, e.Err)
}

func (e *ThemeError) Unwrap() error {
	return e.Err
}

// NewThemeError creates a new ThemeError
func NewThemeError(theme, stage string, err error) *ThemeError {
	return &ThemeError{
		Theme: theme,
		Stage: stage,
		Err:   err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// IsTimeout reports whether err was caused by a network or process timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
