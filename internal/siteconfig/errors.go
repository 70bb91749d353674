package siteconfig

import "errors"

// Sentinel errors for the siteconfig package
var (
	// ErrNoRemoteTheme indicates the configuration does not set remote_theme
	ErrNoRemoteTheme = errors.New("site configuration does not set remote_theme")

	// ErrInvalidFormat indicates the file is not valid YAML or JSON
	ErrInvalidFormat = errors.New("site configuration must be valid YAML or JSON")

	// ErrFileNotFound indicates the configuration file does not exist
	ErrFileNotFound = errors.New("site configuration file not found")

	// ErrUnsupportedExt indicates an unsupported file extension
	ErrUnsupportedExt = errors.New("unsupported file extension (use .yml, .yaml, or .json)")
)
