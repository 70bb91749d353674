package domain

//go:generate mockgen -destination=../mocks/domain_mock.go -package=mocks . ArchiveFetcher,Extractor,CommandRunner

import (
	"context"
	"io"
	"time"
)

// ArchiveFetcher streams the remote archive of a theme into dst
type ArchiveFetcher interface {
	// ArchiveURL returns the download URL for the reference
	ArchiveURL(ref *ThemeReference) string
	// Fetch writes the archive bytes to dst. A returned error means the
	// bytes written so far must not be trusted.
	Fetch(ctx context.Context, ref *ThemeReference, dst io.Writer) error
}

// Extractor unpacks an archive into a destination directory
type Extractor interface {
	// Name returns the extraction method name
	Name() string
	// Extract unpacks archivePath into destDir
	Extract(ctx context.Context, archivePath, destDir string) error
}

// CommandRunner runs an external command given as an argument vector
type CommandRunner interface {
	Run(ctx context.Context, argv ...string) (*CommandResult, error)
}

// CommandResult holds the captured output of a successful command
type CommandResult struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}
