// Package siteconfig reads the remote theme setting from a site
// configuration file.
//
// # File Format
//
// Site configuration files are YAML or JSON documents. Only the keys below
// are read; everything else is ignored:
//
//	title: My Site
//	remote_theme: acme/site-theme@v2.0
//	plugins:
//	  - jekyll-remote-theme
//
// # Usage
//
//	loader := siteconfig.NewLoader()
//	cfg, err := loader.Load("_config.yml")
//	if err != nil {
//	    return err
//	}
//	ref, err := theme.Parse(cfg.RemoteTheme)
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrNoRemoteTheme: the file does not set remote_theme
//   - ErrInvalidFormat: file is not valid YAML/JSON
//   - ErrFileNotFound: configuration file does not exist
//   - ErrUnsupportedExt: unsupported file extension
package siteconfig
