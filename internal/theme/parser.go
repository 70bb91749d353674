// Package theme parses remote theme references such as "owner/name@ref" or
// "https://github.com/owner/name@ref" into domain.ThemeReference values.
package theme

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quantmind-br/remotetheme-go/internal/domain"
)

const (
	ownerPattern = `[A-Za-z0-9-]+`
	namePattern  = `[A-Za-z0-9._-]+?`
	refPattern   = `[A-Za-z0-9._/-]+`
)

// ConfigKey is the site configuration key naming the remote theme
const ConfigKey = "remote_theme"

var (
	shortPattern = regexp.MustCompile(
		`^(` + ownerPattern + `)/(` + namePattern + `)(?:\.git)?(?:@(` + refPattern + `))?$`)
	urlPattern = regexp.MustCompile(
		`^https?://(?:www\.)?github\.com/(` + ownerPattern + `)/(` + namePattern + `)(?:\.git)?/?(?:@(` + refPattern + `))?$`)
)

// Parser turns theme strings into references
type Parser struct {
	patterns []*regexp.Regexp
}

// NewParser creates a parser accepting the short and GitHub URL forms
func NewParser() *Parser {
	return &Parser{
		patterns: []*regexp.Regexp{shortPattern, urlPattern},
	}
}

// Parse parses raw into a reference. A missing ref defaults to HEAD.
func (p *Parser) Parse(raw string) (*domain.ThemeReference, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, domain.NewValidationError(ConfigKey, "theme is empty", domain.ErrInvalidTheme)
	}

	for _, pat := range p.patterns {
		m := pat.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		owner, name, ref := m[1], m[2], m[3]
		if err := validateRef(ref); err != nil {
			return nil, err
		}
		return domain.NewThemeReference(owner, name, ref), nil
	}

	return nil, domain.NewValidationError(ConfigKey,
		fmt.Sprintf("%q must be in the form owner/name[@ref]", raw), domain.ErrInvalidTheme)
}

// Parse parses raw with a default parser
func Parse(raw string) (*domain.ThemeReference, error) {
	return NewParser().Parse(raw)
}

func validateRef(ref string) error {
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(ref, "/") || strings.HasSuffix(ref, "/") ||
		strings.Contains(ref, "//") || strings.Contains(ref, "..") {
		return domain.NewValidationError(ConfigKey,
			fmt.Sprintf("git ref %q is not valid", ref), domain.ErrInvalidTheme)
	}
	return nil
}
