package source

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/albapepper/regatta-data/internal/normalize"
)

// Field is a logical column a loader can locate in a sheet.
type Field string

const (
	FieldClub         Field = "club"
	FieldClubName     Field = "club_name"
	FieldPlace        Field = "place"
	FieldCompetitor   Field = "competitor"
	FieldFirstName    Field = "first_name"
	FieldLastName     Field = "last_name"
	FieldCompetitorID Field = "competitor_id"
	FieldYear         Field = "year"
	FieldRound        Field = "round"
	FieldLeague       Field = "league"
	FieldRegatta      Field = "regatta"
)

// Spec lists the headers accepted for one field, most specific first.
// Pattern, when set, is tried after the aliases.
type Spec struct {
	Field    Field
	Aliases  []string
	Pattern  *regexp.Regexp
	Required bool
}

// minSubstringAlias is the shortest alias allowed to match as a substring
// of a longer header. Shorter aliases ("ID", "Klub") must match whole.
const minSubstringAlias = 5

// MissingColumnError reports a required field with no matching header.
type MissingColumnError struct {
	File     string
	Field    Field
	Accepted []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing column %q (accepted: %s)", e.File, e.Field, strings.Join(e.Accepted, ", "))
}

// Columns maps located fields to header indexes.
type Columns map[Field]int

// Has reports whether f was located.
func (c Columns) Has(f Field) bool {
	_, ok := c[f]
	return ok
}

// Index returns the column of f, or -1.
func (c Columns) Index(f Field) int {
	if i, ok := c[f]; ok {
		return i
	}
	return -1
}

// Match locates every spec in header. Specs are evaluated in order and a
// column claimed by an earlier spec is never reused. Each spec tries exact
// headers, then case- and accent-folded headers, then its pattern, then
// folded substrings.
func Match(header []string, specs []Spec) (Columns, error) {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = normalize.Fold(h)
	}

	cols := Columns{}
	claimed := map[int]bool{}
	for _, spec := range specs {
		idx := locate(header, folded, claimed, spec)
		if idx < 0 {
			if spec.Required {
				return cols, &MissingColumnError{Field: spec.Field, Accepted: spec.accepted()}
			}
			continue
		}
		cols[spec.Field] = idx
		claimed[idx] = true
	}
	return cols, nil
}

// MatchSheet is Match with the sheet's path filled into errors.
func MatchSheet(s *Sheet, specs []Spec) (Columns, error) {
	cols, err := Match(s.Header, specs)
	var mc *MissingColumnError
	if errors.As(err, &mc) {
		mc.File = s.Path
	}
	return cols, err
}

func locate(header, folded []string, claimed map[int]bool, spec Spec) int {
	find := func(pred func(i int) bool) int {
		for i := range header {
			if !claimed[i] && pred(i) {
				return i
			}
		}
		return -1
	}

	for _, a := range spec.Aliases {
		if i := find(func(i int) bool { return header[i] == a }); i >= 0 {
			return i
		}
	}
	for _, a := range spec.Aliases {
		fa := normalize.Fold(a)
		if i := find(func(i int) bool { return folded[i] == fa }); i >= 0 {
			return i
		}
	}
	if spec.Pattern != nil {
		if i := find(func(i int) bool { return spec.Pattern.MatchString(header[i]) }); i >= 0 {
			return i
		}
	}
	for _, a := range spec.Aliases {
		fa := normalize.Fold(a)
		if len(fa) < minSubstringAlias {
			continue
		}
		if i := find(func(i int) bool { return strings.Contains(folded[i], fa) }); i >= 0 {
			return i
		}
	}
	return -1
}

func (s Spec) accepted() []string {
	out := append([]string(nil), s.Aliases...)
	if s.Pattern != nil {
		out = append(out, s.Pattern.String())
	}
	return out
}

// placeHeader matches the many spellings of the place-in-regatta column.
var placeHeader = regexp.MustCompile(`(?i)^\s*m\s*[-.]?\s*ś?\s*ce\s*$|^\s*miejsce( w regatach)?\s*$`)

// ResultSpecs locate the columns of a regatta results sheet.
var ResultSpecs = []Spec{
	{Field: FieldClub, Aliases: []string{"Skrót", "Skrot", "Zespół", "Zespol", "Team"}, Required: true},
	{Field: FieldClubName, Aliases: []string{"Klub", "Nazwa klubu", "Club"}},
	{Field: FieldPlace, Aliases: []string{"M-sce", "M. sce", "Miejsce", "Miejsce w regatach"}, Pattern: placeHeader},
}

// RosterSpecs locate the columns of a participation source. Name and club
// presence is checked by the caller since either a full name or a
// first/last pair is acceptable.
var RosterSpecs = []Spec{
	{Field: FieldCompetitorID, Aliases: []string{"ID_Zawodnika", "ID zawodnika", "ID"}},
	{Field: FieldCompetitor, Aliases: []string{"Zawodnik", "Imię i nazwisko", "Imie i nazwisko", "Name"}},
	{Field: FieldFirstName, Aliases: []string{"Imię", "Imie"}},
	{Field: FieldLastName, Aliases: []string{"Nazwisko"}},
	{Field: FieldClub, Aliases: []string{"ID_klubu", "Klub", "Skrót", "Skrot", "Zespół"}, Required: true},
	{Field: FieldYear, Aliases: []string{"rok", "Rok"}},
	{Field: FieldRound, Aliases: []string{"numer rundy", "Runda"}},
	{Field: FieldLeague, Aliases: []string{"poziom_ligi", "Liga"}},
	{Field: FieldRegatta, Aliases: []string{"regaty", "Regaty"}},
}

// DirectorySpecs locate the name and ID columns of an authoritative
// competitor directory.
var DirectorySpecs = []Spec{
	{Field: FieldCompetitorID, Aliases: []string{"ID_Zawodnika", "ID zawodnika", "ID"}, Required: true},
	{Field: FieldCompetitor, Aliases: []string{"Zawodnik", "Imię i nazwisko", "Imie i nazwisko", "Name"}},
	{Field: FieldFirstName, Aliases: []string{"Imię", "Imie"}},
	{Field: FieldLastName, Aliases: []string{"Nazwisko"}},
}
