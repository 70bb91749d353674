package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultGitRef is used when a theme reference does not name a ref
const DefaultGitRef = "HEAD"

// ThemeReference identifies a remote theme archive and, once extracted,
// the directory holding its content.
type ThemeReference struct {
	owner  string
	name   string
	gitRef string

	mu   sync.RWMutex
	root string
}

// NewThemeReference creates a reference; an empty gitRef defaults to HEAD
func NewThemeReference(owner, name, gitRef string) *ThemeReference {
	if gitRef == "" {
		gitRef = DefaultGitRef
	}
	return &ThemeReference{
		owner:  owner,
		name:   name,
		gitRef: gitRef,
	}
}

// Owner returns the account owning the repository
func (t *ThemeReference) Owner() string { return t.owner }

// Name returns the repository name
func (t *ThemeReference) Name() string { return t.name }

// GitRef returns the branch, tag or commit of the archive
func (t *ThemeReference) GitRef() string { return t.gitRef }

// NameWithOwner returns "owner/name", used in logs
func (t *ThemeReference) NameWithOwner() string {
	return t.owner + "/" + t.name
}

// Key returns the identity of the archive this reference points at
func (t *ThemeReference) Key() string {
	return t.NameWithOwner() + "@" + t.gitRef
}

func (t *ThemeReference) String() string {
	return t.Key()
}

// Root returns the resolved theme directory, or "" before extraction
func (t *ThemeReference) Root() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// SetRoot records the resolved theme directory. The path must be an
// absolute, existing, non-empty directory. Setting the same path again is
// allowed; replacing a root that still holds content is not.
func (t *ThemeReference) SetRoot(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s is not absolute", ErrInvalidRoot, path)
	}
	if err := checkRoot(path); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.root != "" && t.root != path && checkRoot(t.root) == nil {
		return fmt.Errorf("%w: %s", ErrRootAlreadySet, t.root)
	}
	t.root = path
	return nil
}

func checkRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, path)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRoot, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrInvalidRoot, path)
	}
	return nil
}

// ResolvedTheme is the downstream view of a resolved reference
type ResolvedTheme struct {
	Theme string `json:"theme"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Ref   string `json:"ref"`
	Root  string `json:"root"`
}

// Resolved returns the downstream view of the reference
func (t *ThemeReference) Resolved() ResolvedTheme {
	return ResolvedTheme{
		Theme: t.NameWithOwner(),
		Owner: t.owner,
		Name:  t.name,
		Ref:   t.gitRef,
		Root:  t.Root(),
	}
}
