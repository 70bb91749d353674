package git

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
)

// Client defines the interface for Git operations
type Client interface {
	// ListRemote returns the references advertised by the repository at
	// url, peeled tags included.
	ListRemote(ctx context.Context, url string) ([]*plumbing.Reference, error)
}
