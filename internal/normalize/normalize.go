// Package normalize provides the single name-normalization and
// string-similarity pair used by every resolution call site. Centralizing
// both here means the match threshold and the folding rules have exactly
// one point of change.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultHonorifics is the fixed set of honorific/title tokens removed
// during normalization, hand-tuned for Spanish-language news text.
var DefaultHonorifics = []string{
	"dr", "dra", "ing", "lic", "prof", "sr", "sra",
	"presidente", "ministro", "ministra", "diputado", "diputada",
}

var (
	honorificRe  = regexp.MustCompile(`\b(` + strings.Join(DefaultHonorifics, "|") + `)\b\.?`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// stripMarks removes combining diacritical marks after NFD decomposition.
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
)

// Name converts a raw display name into its comparison key: lowercased,
// diacritics stripped, honorific titles removed as whole words, everything
// outside [a-z0-9\s] dropped, whitespace collapsed and trimmed.
//
// Deterministic and total: empty or whitespace-only input yields "".
func Name(raw string) string {
	s := strings.ToLower(raw)

	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	s = honorificRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripDescriptor removes a trailing parenthetical descriptor from a
// counterpart name ("Ana Díaz (hermana)" → "Ana Díaz") and trims the result.
func StripDescriptor(name string) string {
	if i := strings.Index(name, " ("); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}
