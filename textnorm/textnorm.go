// Package textnorm folds text into a canonical base-letter form for
// accent-insensitive matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold decomposes s (NFD), drops combining marks and lowercases the result,
// so "Tecnología" and "tecnologia" fold to the same string.
func Fold(s string) string {
	if s == "" {
		return ""
	}

	// A transformer is stateful, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		// Invalid UTF-8 is left undecomposed rather than dropped.
		folded = s
	}

	return strings.ToLower(folded)
}

// Contains reports whether needle occurs in haystack after both are folded.
// An empty or whitespace-only needle matches everything.
func Contains(haystack, needle string) bool {
	n := Fold(strings.TrimSpace(needle))
	if n == "" {
		return true
	}
	return strings.Contains(Fold(haystack), n)
}
