package extractor

import (
	"context"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
)

const defaultUnzipPath = "unzip"

// Unzip extracts archives with the external unzip program
type Unzip struct {
	runner domain.CommandRunner
	path   string
	quiet  bool
	logger *utils.Logger
}

var _ domain.Extractor = (*Unzip)(nil)

// NewUnzip creates an Unzip extractor running path through runner
func NewUnzip(runner domain.CommandRunner, path string, quiet bool, logger *utils.Logger) *Unzip {
	if path == "" {
		path = defaultUnzipPath
	}
	return &Unzip{
		runner: runner,
		path:   path,
		quiet:  quiet,
		logger: utils.OrNop(logger),
	}
}

// Name returns the extraction method name
func (u *Unzip) Name() string {
	return MethodUnzip
}

// Args returns the unzip argument vector for archivePath and destDir
func (u *Unzip) Args(archivePath, destDir string) []string {
	argv := []string{u.path}
	if u.quiet {
		argv = append(argv, "-q")
	}
	return append(argv, archivePath, "-d", destDir)
}

// Extract runs unzip. Failures are returned as *domain.ExecutionError.
func (u *Unzip) Extract(ctx context.Context, archivePath, destDir string) error {
	u.logger.Debug().
		Str("archive", archivePath).
		Str("destination", destDir).
		Msg("Unzipping archive")

	_, err := u.runner.Run(ctx, u.Args(archivePath, destDir)...)
	return err
}
