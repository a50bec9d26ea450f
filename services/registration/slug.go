package registration

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MinSlugLength = 3
	MaxSlugLength = 50
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	slugSeparators = regexp.MustCompile(`[\s_]+`)
	slugDisallowed = regexp.MustCompile(`[^a-z0-9-]+`)
	slugHyphenRuns = regexp.MustCompile(`-{2,}`)
)

// foldDiacritics maps "María" to "Maria".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeSlug turns free text into a URL-safe slug:
// "Dra. María Pérez!!" becomes "dra-maria-perez".
func NormalizeSlug(raw string) string {
	s := strings.ToLower(foldDiacritics(strings.TrimSpace(raw)))
	s = slugSeparators.ReplaceAllString(s, "-")
	s = slugDisallowed.ReplaceAllString(s, "")
	s = slugHyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ValidateSlug checks format and length of an already normalized slug.
func ValidateSlug(slug string) error {
	if n := len(slug); n < MinSlugLength || n > MaxSlugLength {
		return fmt.Errorf("%w: length must be between %d and %d", ErrInvalidSlug, MinSlugLength, MaxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: only lowercase letters, digits and inner hyphens", ErrInvalidSlug)
	}
	return nil
}
