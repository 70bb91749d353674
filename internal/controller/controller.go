// Package controller drives a theme reference from remote archive to a
// resolved local directory.
package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
)

// DefaultTempPrefix names the temporary files and directories of a session
const DefaultTempPrefix = "remote-theme-"

// Options configures a Controller
type Options struct {
	Fetcher   domain.ArchiveFetcher
	Extractor domain.Extractor
	// TempDir holds sessions; empty uses the OS temp dir
	TempDir string
	Prefix  string
	Logger  *utils.Logger
}

// Controller resolves theme references. It is safe for concurrent use;
// concurrent runs of the same reference are serialized.
type Controller struct {
	fetcher   domain.ArchiveFetcher
	extractor domain.Extractor
	tempDir   string
	prefix    string
	logger    *utils.Logger

	mu      sync.Mutex
	entries map[*domain.ThemeReference]*entry
}

type entry struct {
	run   sync.Mutex
	mu    sync.RWMutex
	state State
	err   error
}

// New creates a Controller
func New(opts Options) (*Controller, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultTempPrefix
	}

	return &Controller{
		fetcher:   opts.Fetcher,
		extractor: opts.Extractor,
		tempDir:   opts.TempDir,
		prefix:    prefix,
		logger:    utils.OrNop(opts.Logger).WithComponent("controller"),
		entries:   make(map[*domain.ThemeReference]*entry),
	}, nil
}

// State returns the current state of ref
func (c *Controller) State(ref *domain.ThemeReference) State {
	e := c.lookup(ref, false)
	if e == nil {
		return StateIdle
	}
	return e.current()
}

// Err returns the error of the last failed run of ref
func (c *Controller) Err(ref *domain.ThemeReference) error {
	e := c.lookup(ref, false)
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// Run downloads, extracts and roots ref unless it is already complete.
// Errors are *domain.ThemeError wrapping the failure of the stage that
// stopped the run; ref's root is only set after every stage succeeded.
func (c *Controller) Run(ctx context.Context, ref *domain.ThemeReference) error {
	e := c.acquire(ref)
	defer e.run.Unlock()

	if e.current() == StateComplete {
		return nil
	}

	logger := c.logger.WithTheme(ref.NameWithOwner())

	if root := ref.Root(); root != "" && utils.IsNonEmptyDir(root) {
		logger.Debug().Str("root", root).Msg("Using existing theme")
		e.set(StateComplete, nil)
		return nil
	}

	err := c.run(ctx, ref, e, logger)
	if err != nil {
		e.set(StateFailed, err)
		logger.Debug().Err(err).Msg("Theme resolution failed")
		return err
	}

	e.set(StateComplete, nil)
	return nil
}

func (c *Controller) run(ctx context.Context, ref *domain.ThemeReference, e *entry, logger *utils.Logger) error {
	sess, err := newSession(c.tempDir, c.prefix)
	if err != nil {
		return domain.NewThemeError(ref.NameWithOwner(), StagePrepare, err)
	}

	e.set(StateFetching, nil)
	logger.Debug().
		Str("url", c.fetcher.ArchiveURL(ref)).
		Str("destination", sess.archivePath).
		Msg("Downloading theme")
	if err := c.fetch(ctx, ref, sess.archivePath); err != nil {
		sess.discard()
		return domain.NewThemeError(ref.NameWithOwner(), StageFetch, err)
	}

	e.set(StateExtracting, nil)
	logger.Debug().
		Str("archive", sess.archivePath).
		Str("destination", sess.dir).
		Str("method", c.extractor.Name()).
		Msg("Extracting theme")
	if err := c.extractor.Extract(ctx, sess.archivePath, sess.dir); err != nil {
		sess.discard()
		return domain.NewThemeError(ref.NameWithOwner(), StageExtract, err)
	}
	sess.removeArchive()

	e.set(StateResolvingRoot, nil)
	root, err := ResolveRoot(sess.dir)
	if err == nil {
		err = ref.SetRoot(root)
	}
	if err != nil {
		sess.discard()
		return domain.NewThemeError(ref.NameWithOwner(), StageResolve, err)
	}

	logger.Debug().Str("root", root).Msg("Theme root resolved")
	return nil
}

func (c *Controller) fetch(ctx context.Context, ref *domain.ThemeReference, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := c.fetcher.Fetch(ctx, ref, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ResolveRoot returns the single top-level directory extracted into dir.
// The name is taken from the directory listing, so its case is exactly
// what the archive produced.
func ResolveRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	switch len(entries) {
	case 0:
		return "", &domain.PathResolutionError{Dir: dir, Reason: domain.ReasonEmpty}
	case 1:
	default:
		names := make([]string, 0, len(entries))
		for _, de := range entries {
			names = append(names, de.Name())
		}
		return "", &domain.PathResolutionError{Dir: dir, Reason: domain.ReasonAmbiguous, Entries: names}
	}

	root := filepath.Join(dir, entries[0].Name())
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return "", &domain.PathResolutionError{
			Dir:     dir,
			Reason:  domain.ReasonNotDirectory,
			Entries: []string{entries[0].Name()},
		}
	}
	return root, nil
}

// Forget drops the state kept for ref. Entries are keyed by reference
// identity and otherwise live as long as the controller, so callers that
// build fresh references per call release them once done. A reference
// with a run in progress is kept and Forget reports false.
func (c *Controller) Forget(ref *domain.ThemeReference) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ref]
	if !ok {
		return true
	}
	if !e.run.TryLock() {
		return false
	}
	defer e.run.Unlock()
	delete(c.entries, ref)
	return true
}

// acquire returns the entry of ref with its run lock held
func (c *Controller) acquire(ref *domain.ThemeReference) *entry {
	for {
		e := c.lookup(ref, true)
		e.run.Lock()
		if c.lookup(ref, false) == e {
			return e
		}
		// forgotten while waiting
		e.run.Unlock()
	}
}

func (c *Controller) lookup(ref *domain.ThemeReference, create bool) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ref]
	if !ok && create {
		e = &entry{}
		c.entries[ref] = e
	}
	return e
}

func (e *entry) current() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *entry) set(state State, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = state
	e.err = err
}

