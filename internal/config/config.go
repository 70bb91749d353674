package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
	"github.com/quantmind-br/remotetheme-go/pkg/version"
)

// Config represents the application configuration
type Config struct {
	Network     NetworkConfig     `mapstructure:"network" yaml:"network"`
	Extract     ExtractConfig     `mapstructure:"extract" yaml:"extract"`
	Workspace   WorkspaceConfig   `mapstructure:"workspace" yaml:"workspace"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
}

// NetworkConfig contains archive download settings
type NetworkConfig struct {
	Host          string        `mapstructure:"host" yaml:"host"`
	ArchiveMarker string        `mapstructure:"archive_marker" yaml:"archive_marker"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	ProxyURL      string        `mapstructure:"proxy_url" yaml:"proxy_url"`
	GitHost       string        `mapstructure:"git_host" yaml:"git_host"`
}

// ExtractConfig contains archive extraction settings
type ExtractConfig struct {
	Method         string   `mapstructure:"method" yaml:"method"`
	UnzipPath      string   `mapstructure:"unzip_path" yaml:"unzip_path"`
	TimeoutCommand []string `mapstructure:"timeout_command" yaml:"timeout_command"`
	Quiet          bool     `mapstructure:"quiet" yaml:"quiet"`
}

// WorkspaceConfig contains temporary file settings
type WorkspaceConfig struct {
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir"`
	Prefix  string `mapstructure:"prefix" yaml:"prefix"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate validates the configuration, replacing unusable values with defaults
func (c *Config) Validate() error {
	if c.Network.Host == "" {
		c.Network.Host = DefaultHost
	}
	u, err := url.Parse(c.Network.Host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.NewValidationError("network.host", fmt.Sprintf("%q is not an http(s) URL", c.Network.Host), err)
	}
	if c.Network.GitHost == "" {
		c.Network.GitHost = DefaultGitHost
	}
	if c.Network.ArchiveMarker == "" {
		c.Network.ArchiveMarker = DefaultArchiveMarker
	}
	if c.Network.Timeout < time.Second {
		c.Network.Timeout = DefaultTimeout
	}
	if c.Network.UserAgent == "" {
		c.Network.UserAgent = version.UserAgent()
	}
	if c.Network.ProxyURL != "" {
		if _, err := url.Parse(c.Network.ProxyURL); err != nil {
			return domain.NewValidationError("network.proxy_url", err.Error(), err)
		}
	}

	switch c.Extract.Method {
	case "":
		c.Extract.Method = DefaultExtractMethod
	case ExtractMethodUnzip, ExtractMethodNative:
	default:
		return domain.NewValidationError("extract.method",
			fmt.Sprintf("%q (use %s or %s)", c.Extract.Method, ExtractMethodUnzip, ExtractMethodNative),
			domain.ErrUnknownExtractor)
	}
	if c.Extract.UnzipPath == "" {
		c.Extract.UnzipPath = DefaultUnzipPath
	}

	if c.Workspace.Prefix == "" {
		c.Workspace.Prefix = DefaultTempPrefix
	}
	if c.Concurrency.Workers < 1 {
		c.Concurrency.Workers = DefaultWorkers
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	return nil
}
