// Package git pins theme references to commits using remote ref listings.
package git

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
)

// DefaultBaseURL hosts the repositories themes are archived from
const DefaultBaseURL = "https://github.com"

const peeledSuffix = "^{}"

var shaPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// Resolver turns branch, tag and HEAD refs into commit SHAs
type Resolver struct {
	client  Client
	baseURL string
	logger  *utils.Logger
}

// NewResolver creates a Resolver listing refs of baseURL repositories
func NewResolver(client Client, baseURL string, logger *utils.Logger) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  utils.OrNop(logger).WithComponent("git"),
	}
}

// RepoURL returns the clone URL of the theme repository
func (r *Resolver) RepoURL(ref *domain.ThemeReference) string {
	return fmt.Sprintf("%s/%s/%s.git", r.baseURL, ref.Owner(), ref.Name())
}

// Resolve returns the commit SHA ref points at. A full SHA is returned
// without contacting the remote.
func (r *Resolver) Resolve(ctx context.Context, ref *domain.ThemeReference) (string, error) {
	gitRef := ref.GitRef()
	if shaPattern.MatchString(gitRef) {
		return strings.ToLower(gitRef), nil
	}

	url := r.RepoURL(ref)
	r.logger.Debug().Str("url", url).Str("ref", gitRef).Msg("Listing remote refs")

	refs, err := r.client.ListRemote(ctx, url)
	if err != nil {
		return "", fmt.Errorf("list remote refs of %s: %w", url, err)
	}

	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, rf := range refs {
		byName[rf.Name()] = rf
	}

	for _, name := range candidates(gitRef) {
		if hash, ok := resolveName(byName, name); ok {
			r.logger.Debug().Str("ref", string(name)).Str("sha", hash).Msg("Resolved ref")
			return hash, nil
		}
	}

	return "", fmt.Errorf("%w: %s", domain.ErrRefNotFound, ref.Key())
}

// candidates lists the ref names tried for gitRef, most specific first.
// Peeled tags come before the tag itself so annotated tags resolve to the
// commit rather than the tag object.
func candidates(gitRef string) []plumbing.ReferenceName {
	if gitRef == "" || gitRef == string(plumbing.HEAD) {
		return []plumbing.ReferenceName{plumbing.HEAD}
	}
	if strings.HasPrefix(gitRef, "refs/") {
		return []plumbing.ReferenceName{
			plumbing.ReferenceName(gitRef + peeledSuffix),
			plumbing.ReferenceName(gitRef),
		}
	}
	return []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(gitRef),
		plumbing.ReferenceName(plumbing.NewTagReferenceName(gitRef).String() + peeledSuffix),
		plumbing.NewTagReferenceName(gitRef),
	}
}

func resolveName(byName map[plumbing.ReferenceName]*plumbing.Reference, name plumbing.ReferenceName) (string, bool) {
	// symbolic chains are short; the bound guards against loops
	for i := 0; i < 5; i++ {
		rf, ok := byName[name]
		if !ok {
			return "", false
		}
		if rf.Type() == plumbing.HashReference {
			return rf.Hash().String(), true
		}
		name = rf.Target()
	}
	return "", false
}
