// Package extractor unpacks downloaded theme archives.
package extractor

import (
	"fmt"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
)

// Extraction methods
const (
	MethodUnzip  = "unzip"
	MethodNative = "native"
)

// Options configures the extractor returned by New
type Options struct {
	Method    string
	UnzipPath string
	Quiet     bool
	// Runner executes the unzip command; required for MethodUnzip
	Runner domain.CommandRunner
	Logger *utils.Logger
}

// New returns the extractor for opts.Method. An empty method selects unzip.
func New(opts Options) (domain.Extractor, error) {
	switch opts.Method {
	case MethodUnzip, "":
		if opts.Runner == nil {
			return nil, fmt.Errorf("%s extractor requires a command runner", MethodUnzip)
		}
		return NewUnzip(opts.Runner, opts.UnzipPath, opts.Quiet, opts.Logger), nil
	case MethodNative:
		return NewNative(opts.Logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownExtractor, opts.Method)
	}
}
