package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantmind-br/remotetheme-go/internal/app"
	"github.com/quantmind-br/remotetheme-go/internal/config"
	"github.com/quantmind-br/remotetheme-go/internal/fetcher"
	"github.com/quantmind-br/remotetheme-go/internal/siteconfig"
	"github.com/quantmind-br/remotetheme-go/internal/utils"
	"github.com/quantmind-br/remotetheme-go/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	verbose    bool
	siteConfig string
	jsonOutput bool
	noProgress bool

	// Dependencies for testing
	execLookPath = exec.LookPath
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "remotetheme",
	Short: "Download and unpack remote site themes",
	Long: `remotetheme resolves remote theme references such as acme/site-theme@v2.0
into local directories by downloading the repository archive and unpacking it.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.remotetheme/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultTimeout, "Archive download timeout")
	rootCmd.PersistentFlags().String("host", config.DefaultHost, "Archive host")
	rootCmd.PersistentFlags().String("method", config.DefaultExtractMethod, "Extraction method (unzip or native)")
	rootCmd.PersistentFlags().IntP("workers", "j", config.DefaultWorkers, "Number of themes resolved concurrently")

	// Fetch flags
	fetchCmd.Flags().StringVar(&siteConfig, "site-config", "", "Read remote_theme from a site configuration file or directory")
	fetchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print one JSON object per resolved theme")
	fetchCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress bars")

	// Bind flags to viper
	_ = viper.BindPFlag("network.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("network.host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("extract.method", rootCmd.PersistentFlags().Lookup("method"))
	_ = viper.BindPFlag("concurrency.workers", rootCmd.PersistentFlags().Lookup("workers"))

	// Add subcommands
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext(log *utils.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("Shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

func newOrchestrator(showProgress bool) (*app.Orchestrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return app.NewOrchestrator(app.OrchestratorOptions{
		Config:       cfg,
		Verbose:      verbose,
		ShowProgress: showProgress,
	})
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [theme...]",
	Short: "Download and unpack remote themes",
	Long: `Downloads each theme archive and prints the directory holding its content.

Themes are given as owner/name[@ref] or https://github.com/owner/name[@ref].
Without arguments the remote_theme of the site configuration is used.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	inputs, err := collectThemes(args)
	if err != nil {
		return err
	}

	orch, err := newOrchestrator(!jsonOutput && !noProgress)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(orch.Logger())
	defer cancel()

	results, err := orch.ResolveAll(ctx, inputs)

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for _, r := range results {
		if r.Err != nil || r.Ref == nil {
			continue
		}
		if jsonOutput {
			if encErr := enc.Encode(r.Ref.Resolved()); encErr != nil {
				return encErr
			}
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", r.Ref.Key(), r.Ref.Root())
	}
	return err
}

// collectThemes returns the theme arguments, falling back to the
// remote_theme of the site configuration.
func collectThemes(args []string) ([]string, error) {
	inputs := append([]string(nil), args...)
	if siteConfig == "" && len(inputs) > 0 {
		return inputs, nil
	}

	loader := siteconfig.NewLoader()
	path := siteConfig
	if path == "" {
		found, err := loader.Find(".")
		if err != nil {
			return nil, fmt.Errorf("no theme given: pass owner/name[@ref] or --site-config")
		}
		path = found
	}

	site, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	if site.ConflictsWithTheme() {
		fmt.Fprintf(os.Stderr, "warning: %s sets both theme and remote_theme; remote_theme wins\n", path)
	}
	return append(inputs, site.RemoteTheme), nil
}

var pinCmd = &cobra.Command{
	Use:   "pin <theme>",
	Short: "Resolve a theme ref to a commit",
	Long:  "Lists the refs of the theme repository and prints owner/name@<commit sha>.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator(false)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(orch.Logger())
		defer cancel()

		pinned, err := orch.Pin(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pinned)
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system dependencies",
	Long:  "Verifies that the extraction tools, workspace and configuration are usable.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Checking system dependencies...")
		allPassed := true

		// Check 1: Config file
		fmt.Fprint(out, "  Config file: ")
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(out, "WARN (%v)\n", err)
			cfg = config.Default()
		} else if used := viper.ConfigFileUsed(); used != "" {
			fmt.Fprintf(out, "OK (%s)\n", used)
		} else {
			fmt.Fprintf(out, "OK (defaults, %s not found)\n", config.ConfigFilePath())
		}

		// Check 2: unzip
		fmt.Fprint(out, "  unzip: ")
		if path := checkBinary(cfg.Extract.UnzipPath); path != "" {
			fmt.Fprintf(out, "OK (%s)\n", path)
		} else if cfg.Extract.Method == config.ExtractMethodUnzip {
			fmt.Fprintln(out, "FAILED (install unzip or set extract.method to native)")
			allPassed = false
		} else {
			fmt.Fprintln(out, "NOT FOUND (not needed with native extraction)")
		}

		// Check 3: timeout wrapper
		fmt.Fprint(out, "  Timeout wrapper: ")
		if len(cfg.Extract.TimeoutCommand) == 0 {
			fmt.Fprintln(out, "NOT CONFIGURED")
		} else if path := checkBinary(cfg.Extract.TimeoutCommand[0]); path != "" {
			fmt.Fprintf(out, "OK (%s)\n", path)
		} else {
			fmt.Fprintf(out, "FAILED (%s not found)\n", cfg.Extract.TimeoutCommand[0])
			allPassed = false
		}

		// Check 4: Workspace
		tempDir := cfg.Workspace.TempDir
		if tempDir == "" {
			tempDir = os.TempDir()
		}
		fmt.Fprint(out, "  Workspace: ")
		if utils.IsWritableDir(tempDir) {
			fmt.Fprintf(out, "OK (%s)\n", tempDir)
		} else {
			fmt.Fprintf(out, "FAILED (%s is not writable)\n", tempDir)
			allPassed = false
		}

		// Check 5: Archive host
		fmt.Fprint(out, "  Archive host: ")
		if checkHost(cfg.Network.Host, cfg.Network.ProxyURL) {
			fmt.Fprintf(out, "OK (%s)\n", cfg.Network.Host)
		} else {
			fmt.Fprintf(out, "WARN (%s unreachable)\n", cfg.Network.Host)
		}

		fmt.Fprintln(out)
		if allPassed {
			fmt.Fprintln(out, "All critical checks passed!")
		} else {
			fmt.Fprintln(out, "Some checks failed. Please resolve the issues above.")
		}
		return nil
	},
}

// checkBinary returns the resolved path of name, or "" when missing
func checkBinary(name string) string {
	path, err := execLookPath(name)
	if err != nil {
		return ""
	}
	return path
}

// checkHost reports whether the archive host answers at all
func checkHost(host, proxyURL string) bool {
	client, err := fetcher.NewHTTPClient(5*time.Second, proxyURL)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, host, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode < 500
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return nil
	},
}
