package siteconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileNames are searched in order by Find
var DefaultFileNames = []string{"_config.yml", "_config.yaml", "_config.json"}

// Loader loads site configuration files
type Loader struct{}

// NewLoader creates a new site configuration loader
func NewLoader() *Loader {
	return &Loader{}
}

// Find returns the first default configuration file present in dir
func (l *Loader) Find(dir string) (string, error) {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no %s in %s", ErrFileNotFound, strings.Join(DefaultFileNames, ", "), dir)
}

// Load reads a configuration file. A directory is searched with Find.
func (l *Loader) Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err == nil && info.IsDir() {
		if path, err = l.Find(path); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site configuration: %w", err)
	}

	return l.LoadFromBytes(data, filepath.Ext(path))
}

// LoadFromBytes parses site configuration from raw bytes
func (l *Loader) LoadFromBytes(data []byte, ext string) (*Config, error) {
	ext = strings.ToLower(ext)

	var cfg Config
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExt, ext)
	}

	cfg.RemoteTheme = strings.TrimSpace(cfg.RemoteTheme)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
