package config

import (
	"os"
	"path/filepath"
	"time"
)

// Extraction methods
const (
	ExtractMethodUnzip  = "unzip"
	ExtractMethodNative = "native"
)

// Default values
const (
	// Network defaults
	DefaultHost          = "https://codeload.github.com"
	DefaultGitHost       = "https://github.com"
	DefaultArchiveMarker = "zip"
	DefaultTimeout       = 60 * time.Second

	// Extraction defaults
	DefaultExtractMethod = ExtractMethodUnzip
	DefaultUnzipPath     = "unzip"

	// Workspace defaults
	DefaultTempPrefix = "remote-theme-"

	// Concurrency defaults
	DefaultWorkers = 4

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".remotetheme"
	}
	return filepath.Join(home, ".remotetheme")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	cfg := &Config{
		Network: NetworkConfig{
			Host:          DefaultHost,
			GitHost:       DefaultGitHost,
			ArchiveMarker: DefaultArchiveMarker,
			Timeout:       DefaultTimeout,
		},
		Extract: ExtractConfig{
			Method:         DefaultExtractMethod,
			UnzipPath:      DefaultUnzipPath,
			TimeoutCommand: []string{},
		},
		Workspace: WorkspaceConfig{
			Prefix: DefaultTempPrefix,
		},
		Concurrency: ConcurrencyConfig{
			Workers: DefaultWorkers,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
	// Fills the version-derived user agent
	_ = cfg.Validate()
	return cfg
}
