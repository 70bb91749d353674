package mocks

import (
	"context"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/mock"
)

// MockGitClient mocks the git.Client interface
type MockGitClient struct {
	mock.Mock
}

// ListRemote mocks the remote ref listing
func (m *MockGitClient) ListRemote(ctx context.Context, url string) ([]*plumbing.Reference, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*plumbing.Reference), args.Error(1)
}
