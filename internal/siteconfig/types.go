package siteconfig

import "strings"

// Config holds the site settings relevant to remote themes
type Config struct {
	RemoteTheme string   `yaml:"remote_theme" json:"remote_theme"`
	Theme       string   `yaml:"theme,omitempty" json:"theme,omitempty"`
	Plugins     []string `yaml:"plugins,omitempty" json:"plugins,omitempty"`
}

// Validate checks that a remote theme is configured
func (c *Config) Validate() error {
	if strings.TrimSpace(c.RemoteTheme) == "" {
		return ErrNoRemoteTheme
	}
	return nil
}

// ConflictsWithTheme reports whether a gem-based theme is configured too
func (c *Config) ConflictsWithTheme() bool {
	return c.Theme != "" && c.RemoteTheme != ""
}
