// Package normalize holds the string canonicalisation profiles used across
// the pipeline. Display and Key work on club data, Name on competitor names
// and Fold on spreadsheet headers. All functions are total and idempotent.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Display trims s and collapses internal whitespace runs to one space.
// Case is preserved.
func Display(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Key is the grouping form of a club abbreviation: display normalised, all
// whitespace removed, upper-cased. Never shown to users.
func Key(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// Name is the accent-insensitive form of a person's name used as hash input.
// The string is compatibility-decomposed and every non-ASCII rune left
// afterwards is dropped, so letters without a decomposition (ł, đ, ø)
// disappear instead of folding. Identifiers already in circulation depend on
// that exact behaviour.
func Name(s string) string {
	folded, _, err := transform.String(asciiFold(), s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(Display(folded))
}

// Fold is the comparison form of a column header: lower-case, Polish letters
// mapped to their base letters (ł included), whitespace collapsed.
func Fold(s string) string {
	return Name(strokeReplacer.Replace(s))
}

var strokeReplacer = strings.NewReplacer("ł", "l", "Ł", "L")

func asciiFold() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
}
