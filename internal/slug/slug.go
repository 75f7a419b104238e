// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]+`)
	dashRuns  = regexp.MustCompile(`-+`)
	asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(isNotASCII)))
)

func isNotASCII(r rune) bool {
	return r > unicode.MaxASCII
}

// Make lowercases text, folds it to ASCII, and joins alphanumeric runs with
// single dashes. Empty input yields "".
func Make(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = stripNonASCII(norm.NFKD.String(text))
	}
	folded = nonAlnum.ReplaceAllString(folded, "-")
	folded = strings.Trim(folded, "-")
	return dashRuns.ReplaceAllString(folded, "-")
}

func stripNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
