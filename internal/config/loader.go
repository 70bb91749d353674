package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (REMOTETHEME_NETWORK_TIMEOUT, ...)
const EnvPrefix = "REMOTETHEME"

// Load loads configuration from file, environment, and defaults
// Uses the global viper instance to access CLI flag bindings
func Load() (*Config, error) {
	return load(viper.GetViper())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// An explicit SetConfigFile on v takes precedence over the search paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("network.host", DefaultHost)
	v.SetDefault("network.archive_marker", DefaultArchiveMarker)
	v.SetDefault("network.timeout", DefaultTimeout)
	v.SetDefault("network.user_agent", "")
	v.SetDefault("network.proxy_url", "")
	v.SetDefault("network.git_host", DefaultGitHost)

	v.SetDefault("extract.method", DefaultExtractMethod)
	v.SetDefault("extract.unzip_path", DefaultUnzipPath)
	v.SetDefault("extract.timeout_command", []string{})
	v.SetDefault("extract.quiet", false)

	v.SetDefault("workspace.temp_dir", "")
	v.SetDefault("workspace.prefix", DefaultTempPrefix)

	v.SetDefault("concurrency.workers", DefaultWorkers)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}
