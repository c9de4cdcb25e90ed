package identity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/storehub/backend/internal/domain/shared"
)

const (
	minSlugLength = 3
	maxSlugLength = 63
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9]+`)
	repeatedDashes = regexp.MustCompile(`-{2,}`)
)

// DefaultReservedSubdomains lists labels that never resolve to a storefront.
var DefaultReservedSubdomains = []string{
	"www", "api", "admin", "app", "dashboard", "mail", "smtp", "ftp",
	"static", "assets", "cdn", "docs", "status", "blog", "help", "support",
	"auth", "login", "catalog", "webhooks", "dev", "staging",
}

// ReservedSet is a lookup set of reserved subdomain labels
type ReservedSet map[string]struct{}

// NewReservedSet builds a set from a label list, lower-casing entries
func NewReservedSet(labels []string) ReservedSet {
	set := make(ReservedSet, len(labels))
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			set[l] = struct{}{}
		}
	}
	return set
}

// Contains reports whether label is reserved
func (s ReservedSet) Contains(label string) bool {
	_, ok := s[strings.ToLower(label)]
	return ok
}

// Check rejects a reserved slug
func (s ReservedSet) Check(slug string) error {
	if s.Contains(slug) {
		return shared.ErrInvalidInput.WithMessage("Slug %q is reserved", slug)
	}
	return nil
}

// ReservedSubdomains merges the default reserved labels with extra ones,
// typically the deployment's configured list
func ReservedSubdomains(extra []string) ReservedSet {
	return NewReservedSet(append(append([]string{}, DefaultReservedSubdomains...), extra...))
}

var defaultReserved = NewReservedSet(DefaultReservedSubdomains)

// NormalizeSlug turns a display name into a slug: accents are stripped,
// letters lower-cased and runs of anything else collapsed to a single dash.
// "Café Açaí & Cia" becomes "cafe-acai-cia".
func NormalizeSlug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	out := strings.ToLower(stripped)
	out = nonSlugChars.ReplaceAllString(out, "-")
	out = repeatedDashes.ReplaceAllString(out, "-")
	out = strings.Trim(out, "-")
	if len(out) > maxSlugLength {
		out = strings.Trim(out[:maxSlugLength], "-")
	}
	return out
}

// ValidateSlug checks that slug is usable as a subdomain label
func ValidateSlug(slug string) error {
	if len(slug) < minSlugLength || len(slug) > maxSlugLength {
		return shared.ErrInvalidInput.WithMessage("Slug must be between %d and %d characters", minSlugLength, maxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return shared.ErrInvalidInput.WithMessage("Slug may only contain lowercase letters, digits and dashes")
	}
	return defaultReserved.Check(slug)
}
