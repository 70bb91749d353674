// Package app wires configuration, logging and the theme resolution
// components together.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/quantmind-br/remotetheme-go/internal/config"
	"github.com/quantmind-br/remotetheme-go/internal/controller"
	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/internal/executor"
	"github.com/quantmind-br/remotetheme-go/internal/extractor"
	"github.com/quantmind-br/remotetheme-go/internal/fetcher"
	"github.com/quantmind-br/remotetheme-go/internal/git"
	"github.com/quantmind-br/remotetheme-go/internal/theme"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
	"github.com/schollz/progressbar/v3"
)

// Orchestrator resolves theme references into local directories
type Orchestrator struct {
	config       *config.Config
	logger       *utils.Logger
	parser       *theme.Parser
	controller   *controller.Controller
	resolver     *git.Resolver
	showProgress bool
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config  *config.Config
	Verbose bool
	// Logger overrides the logger built from Config.Logging
	Logger *utils.Logger
	// ShowProgress renders progress bars on stderr
	ShowProgress bool

	// Collaborator overrides, used by tests
	Fetcher   domain.ArchiveFetcher
	Extractor domain.Extractor
	GitClient git.Client
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   cfg.Logging.Level,
			Format:  cfg.Logging.Format,
			Verbose: opts.Verbose,
		})
	}

	// a byte bar per download only stays readable when downloads run one at a time
	showBytes := opts.ShowProgress && cfg.Concurrency.Workers == 1

	archiveFetcher := opts.Fetcher
	if archiveFetcher == nil {
		var progress io.Writer
		if showBytes {
			progress = os.Stderr
		}
		f, err := fetcher.NewArchiveFetcher(fetcher.Options{
			Host:          cfg.Network.Host,
			ArchiveMarker: cfg.Network.ArchiveMarker,
			Timeout:       cfg.Network.Timeout,
			UserAgent:     cfg.Network.UserAgent,
			ProxyURL:      cfg.Network.ProxyURL,
			Logger:        logger.WithComponent("fetcher"),
			Progress:      progress,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create fetcher: %w", err)
		}
		archiveFetcher = f
	}

	ext := opts.Extractor
	if ext == nil {
		runner := executor.New(executor.Options{
			TimeoutCommand: cfg.Extract.TimeoutCommand,
			Logger:         logger.WithComponent("executor"),
		})
		e, err := extractor.New(extractor.Options{
			Method:    cfg.Extract.Method,
			UnzipPath: cfg.Extract.UnzipPath,
			Quiet:     cfg.Extract.Quiet,
			Runner:    runner,
			Logger:    logger.WithComponent("extractor"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create extractor: %w", err)
		}
		ext = e
	}

	ctrl, err := controller.New(controller.Options{
		Fetcher:   archiveFetcher,
		Extractor: ext,
		TempDir:   cfg.Workspace.TempDir,
		Prefix:    cfg.Workspace.Prefix,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	gitClient := opts.GitClient
	if gitClient == nil {
		gitClient = git.NewClient()
	}

	return &Orchestrator{
		config:       cfg,
		logger:       logger,
		parser:       theme.NewParser(),
		controller:   ctrl,
		resolver:     git.NewResolver(gitClient, cfg.Network.GitHost, logger),
		showProgress: opts.ShowProgress && !showBytes,
	}, nil
}

// Logger returns the orchestrator logger
func (o *Orchestrator) Logger() *utils.Logger {
	return o.logger
}

// Controller returns the extraction controller
func (o *Orchestrator) Controller() *controller.Controller {
	return o.controller
}

// Resolve parses raw and materializes the theme it names
func (o *Orchestrator) Resolve(ctx context.Context, raw string) (*domain.ThemeReference, error) {
	ref, err := o.parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	defer o.controller.Forget(ref)

	if err := o.controller.Run(ctx, ref); err != nil {
		return ref, err
	}
	return ref, nil
}

// ThemeResult is the outcome of resolving one input of ResolveAll
type ThemeResult struct {
	Input    string
	Ref      *domain.ThemeReference
	Err      error
	Duration time.Duration
}

// ResolveAll resolves every input concurrently, bounded by
// concurrency.workers. Inputs naming the same owner, repository and ref
// share one reference and are downloaded once. The returned error is the
// first failure in input order; results are always complete.
func (o *Orchestrator) ResolveAll(ctx context.Context, inputs []string) ([]ThemeResult, error) {
	startTime := time.Now()
	results := make([]ThemeResult, len(inputs))

	refs := make(map[string]*domain.ThemeReference)
	var unique []*domain.ThemeReference
	for i, input := range inputs {
		results[i].Input = input
		ref, err := o.parser.Parse(input)
		if err != nil {
			results[i].Err = err
			continue
		}
		if existing, ok := refs[ref.Key()]; ok {
			ref = existing
		} else {
			refs[ref.Key()] = ref
			unique = append(unique, ref)
		}
		results[i].Ref = ref
	}

	o.logger.Info().
		Int("themes", len(unique)).
		Int("workers", o.config.Concurrency.Workers).
		Msg("Resolving remote themes")

	var bar *progressbar.ProgressBar
	if o.showProgress && len(unique) > 0 {
		bar = utils.NewProgressBar(len(unique), utils.DescResolving)
		defer bar.Finish()
	}

	durations := make(map[*domain.ThemeReference]time.Duration, len(unique))
	var mu sync.Mutex

	errs := utils.ParallelForEach(ctx, unique, o.config.Concurrency.Workers, func(ctx context.Context, ref *domain.ThemeReference) error {
		start := time.Now()
		err := o.controller.Run(ctx, ref)

		mu.Lock()
		durations[ref] = time.Since(start)
		if bar != nil {
			_ = bar.Add(1)
		}
		mu.Unlock()

		if err != nil {
			o.logger.Error().
				Err(err).
				Str("theme", ref.Key()).
				Bool("timeout", domain.IsTimeout(err)).
				Msg("Theme resolution failed")
			return err
		}
		o.logger.Info().Str("theme", ref.Key()).Str("root", ref.Root()).Msg("Theme ready")
		return nil
	})

	byRef := make(map[*domain.ThemeReference]error, len(unique))
	for i, ref := range unique {
		byRef[ref] = errs[i]
		o.controller.Forget(ref)
	}
	for i := range results {
		if ref := results[i].Ref; ref != nil {
			results[i].Err = byRef[ref]
			results[i].Duration = durations[ref]
		}
	}

	resultErrs := make([]error, len(results))
	for i, r := range results {
		resultErrs[i] = r.Err
	}

	o.logger.Info().
		Dur("duration", time.Since(startTime)).
		Int("total", len(results)).
		Int("failed", len(utils.CollectErrors(resultErrs))).
		Msg("Theme resolution completed")

	return results, utils.FirstError(resultErrs)
}

// Pin resolves the ref of raw to a commit and returns "owner/name@sha"
func (o *Orchestrator) Pin(ctx context.Context, raw string) (string, error) {
	ref, err := o.parser.Parse(raw)
	if err != nil {
		return "", err
	}
	sha, err := o.resolver.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	return ref.NameWithOwner() + "@" + sha, nil
}
