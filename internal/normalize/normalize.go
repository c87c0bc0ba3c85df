// Package normalize provides text folding for search indexing and
// URL-safe slugs for organizers and events.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Fold lowercases s and strips diacritical marks.
// "Théâtre" -> "theatre". "Müller" -> "muller".
// Item and event names pass through here before indexing so the search
// index is tolerant of how customers actually type.
func Fold(s string) string {
	// Decompose accented characters, then drop the combining marks.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}

// Sanitize strips NUL bytes and trims surrounding whitespace, so a
// corrupt stored name cannot poison the search index.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(s)
}

// Slugify converts a string to a URL-safe slug.
// "Summer Festival" -> "summer-festival".
// "Atelier Müller e.V." -> "atelier-muller-e-v".
func Slugify(s string) string {
	s = Fold(s)

	// Remove any remaining non-ASCII characters.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	// Replace non-alphanumeric with hyphens.
	s = nonAlphanumeric.ReplaceAllString(s, "-")

	// Collapse multiple hyphens.
	s = multipleHyphens.ReplaceAllString(s, "-")

	// Trim leading/trailing hyphens.
	s = strings.Trim(s, "-")

	return s
}
