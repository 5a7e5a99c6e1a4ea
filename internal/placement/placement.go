// Package placement turns free-text race result cells into a numeric place
// and a penalty flag.
package placement

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// PenaltyTags are the annotations that replace a finish with the file's
// maximum place.
var PenaltyTags = []string{"(DNF)", "(SCP)", "(DSQ)", "(OCS)", "(DNC)", "(DNE)", "(RET)", "(TLE)"}

// irregular cells seen in historical sheets, matched literally. "10 (OCS0"
// is a typo in real data and must stay as is.
var irregular = map[string]Place{
	"2.5 (RDG)":      {Value: 2.5, Penalty: true},
	"13 (DSQ + SCP)": {Value: 13, Penalty: true},
	"10 (OCS0":       {Value: 10, Penalty: true},
}

var numberRe = regexp.MustCompile(`\d+(\.\d+)?`)

// Place is a parsed result cell.
type Place struct {
	Value   float64
	Penalty bool
}

// PenaltyFlag returns the penalty as 0 or 1.
func (p Place) PenaltyFlag() int {
	if p.Penalty {
		return 1
	}
	return 0
}

// MalformedCellError reports a non-empty cell with neither a number nor a
// known annotation. The accompanying Place holds the fallback value.
type MalformedCellError struct {
	Raw string
}

func (e *MalformedCellError) Error() string {
	return fmt.Sprintf("malformed place cell %q", e.Raw)
}

// Parse converts one cell. Rules apply in order: empty cell, penalty tag,
// irregular literal, first number, fallback. maxPlace is the per-file value
// from MaxPlace.
//
// A non-nil error is always a *MalformedCellError and the returned Place is
// still usable.
func Parse(raw string, maxPlace int) (Place, error) {
	s := strings.TrimSpace(raw)
	fallback := float64(maxPlace)

	if s == "" {
		return Place{Value: fallback}, nil
	}
	for _, tag := range PenaltyTags {
		if strings.Contains(s, tag) {
			return Place{Value: fallback, Penalty: true}, nil
		}
	}
	if p, ok := irregular[s]; ok {
		return p, nil
	}
	if v, ok := FirstNumber(s); ok {
		return Place{Value: v}, nil
	}
	return Place{Value: fallback}, &MalformedCellError{Raw: raw}
}

// FirstNumber extracts the first decimal number in s.
func FirstNumber(s string) (float64, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// MaxPlace is the integer part of the largest number found in any of the
// cells, or 0 when none has one. Feed it every race and final cell of one
// file.
func MaxPlace(cells []string) int {
	best, found := 0.0, false
	for _, c := range cells {
		v, ok := FirstNumber(c)
		if !ok {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	if !found {
		return 0
	}
	return int(math.Trunc(best))
}
