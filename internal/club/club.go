// Package club reconciles the many raw spellings of club abbreviations and
// names found in result sheets into canonical variants with stable IDs.
//
// A variant is one (abbreviation key, display name) pair. Its ID depends only
// on that pair, so the same club row yields the same ID from any file. Keys
// carrying more than one name are reported as conflicts for manual review and
// are never merged automatically.
package club

import (
	"regexp"
	"strings"

	"github.com/albapepper/regatta-data/internal/ident"
	"github.com/albapepper/regatta-data/internal/normalize"
)

// PlaceholderAbbreviation is used when a name has no usable characters to
// build an abbreviation from.
const PlaceholderAbbreviation = "TMP"

const synthesizedLength = 6

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// Observation is one (abbreviation, name) pair read from a source row.
type Observation struct {
	Abbreviation string
	Name         string
	Source       string
}

// Variant is a canonical (abbreviation, name) pair.
type Variant struct {
	ID           string
	Abbreviation string // most frequent display spelling
	Key          string
	Name         string
	GroupID      string
	Occurrences  int
}

// Club is the per-key summary: one row per normalised abbreviation with the
// most frequent name chosen as representative.
type Club struct {
	Abbreviation string
	Key          string
	Name         string
	GroupID      string
	Occurrences  int
}

// Conflict is one candidate name of an abbreviation key that carries more
// than one distinct name.
type Conflict struct {
	Key            string
	Abbreviation   string
	Name           string
	Count          int
	Representative bool
}

// VariantID returns the identifier of the (abbreviation, name) pair. Raw
// input is accepted; both parts are normalised before hashing.
func VariantID(abbreviation, name string) string {
	return ident.Generate(ident.EntityClubVariant, ident.LevelAll,
		ident.Str("Skrot", normalize.Key(abbreviation)),
		ident.Str("Nazwa", normalize.Display(name)),
	)
}

// GroupID returns the identifier of a club group keyed by abbreviation.
func GroupID(abbreviation string) string {
	return ident.Generate(ident.EntityClubGroup, ident.LevelAll,
		ident.Str("Skrot", normalize.Key(abbreviation)))
}

// SynthesizeAbbreviation builds an abbreviation for a row that only has a
// club name: ASCII letters and digits of the upper-cased name, truncated.
// The same name always produces the same abbreviation.
func SynthesizeAbbreviation(name string) string {
	s := nonAlnum.ReplaceAllString(strings.ToUpper(normalize.Display(name)), "")
	if len(s) > synthesizedLength {
		s = s[:synthesizedLength]
	}
	if s == "" {
		return PlaceholderAbbreviation
	}
	return s
}
