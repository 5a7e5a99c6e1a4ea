package pipeline

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/normalize"
	"github.com/albapepper/regatta-data/internal/participation"
	"github.com/albapepper/regatta-data/internal/source"
)

var (
	clubTag      = regexp.MustCompile(`\(([^)]+)\)\s*$`)
	clubTokenSep = regexp.MustCompile(`[\s,/|-]+`)
	roundToken   = regexp.MustCompile(`(\d+)(?:\.\d+)?(?:\s*-\s*(\d+)(?:\.\d+)?)?`)
	yearSegment  = regexp.MustCompile(`^(19|20)\d{2}$`)
	yearInName   = regexp.MustCompile(`(19|20)\d{2}`)
	firstInt     = regexp.MustCompile(`\d+`)
)

// Defaults fill the league and year of roster rows that name neither.
// MaxRound bounds round ranges; zero means config.DefaultMaxRound.
type Defaults struct {
	League   string
	Year     int
	MaxRound int
}

// Candidates reads the roster rows of one participation source. Rows get
// their league from the league column, then the regatta description, then
// the file path, then defaults; the year from its column, the file path,
// then defaults.
func Candidates(s *source.Sheet, def Defaults) ([]participation.Candidate, error) {
	cols, err := source.MatchSheet(s, source.RosterSpecs)
	if err != nil {
		return nil, err
	}
	if !cols.Has(source.FieldCompetitor) && !(cols.Has(source.FieldFirstName) && cols.Has(source.FieldLastName)) {
		return nil, &source.MissingColumnError{File: s.Path, Field: source.FieldCompetitor, Accepted: nameAliases()}
	}

	fileLeague, fileYear := editionFromPath(s.Path)
	if fileLeague == "" {
		fileLeague = def.League
	}
	if fileYear == 0 {
		fileYear = def.Year
	}
	if !cols.Has(source.FieldLeague) && !cols.Has(source.FieldRegatta) && fileLeague == "" {
		return nil, &source.MissingColumnError{File: s.Path, Field: source.FieldLeague, Accepted: aliasesOf(source.FieldLeague)}
	}
	if !cols.Has(source.FieldYear) && fileYear == 0 {
		return nil, &source.MissingColumnError{File: s.Path, Field: source.FieldYear, Accepted: aliasesOf(source.FieldYear)}
	}

	out := make([]participation.Candidate, 0, len(s.Rows))
	for i, row := range s.Rows {
		cell := func(f source.Field) string { return s.Cell(row, cols.Index(f)) }

		name := cell(source.FieldCompetitor)
		if name == "" {
			name = normalize.Display(cell(source.FieldFirstName) + " " + cell(source.FieldLastName))
		}
		desc := cell(source.FieldRegatta)

		league := leagueOf(cell(source.FieldLeague))
		if league == "" {
			league, _ = normalize.LeagueFromRegattaText(desc)
		}
		if league == "" {
			league = fileLeague
		}
		year := yearOf(cell(source.FieldYear))
		if year == 0 {
			year = fileYear
		}

		out = append(out, participation.Candidate{
			Source:       s.Path,
			Line:         s.Line(i),
			CompetitorID: cell(source.FieldCompetitorID),
			FullName:     normalize.Display(name),
			Club:         ClubTag(cell(source.FieldClub)),
			League:       league,
			Year:         year,
			Rounds:       ParseRounds(cell(source.FieldRound), def.MaxRound),
			Regatta:      desc,
		})
	}
	return out, nil
}

// ClubTag extracts the abbreviation from a roster club cell:
// "Yacht Klub Polski (YKP)" gives YKP. Multi-word cells without a tag
// yield their last upper-case token of two to four letters.
func ClubTag(cell string) string {
	s := normalize.Display(cell)
	if m := clubTag.FindStringSubmatch(s); m != nil {
		return normalize.Display(m[1])
	}
	tokens := clubTokenSep.Split(s, -1)
	if len(tokens) < 2 {
		return s
	}
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i]
		if len(t) >= 2 && len(t) <= 4 && t == strings.ToUpper(t) && t != strings.ToLower(t) {
			return t
		}
	}
	return s
}

// ParseRounds reads a round cell: "3", "3.0", "1,2,5", "1-3" or "Runda 2".
// A decimal is one number and counts by its integer part. A range stops at
// maxRound; a single round above maxRound is kept so it can be reported.
// The result is sorted and free of duplicates; nil means no rounds given.
func ParseRounds(cell string, maxRound int) []int {
	if maxRound < 1 {
		maxRound = config.DefaultMaxRound
	}
	seen := map[int]bool{}
	for _, m := range roundToken.FindAllStringSubmatch(cell, -1) {
		from, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if from > 0 {
			seen[from] = true
		}
		if m[2] == "" {
			continue
		}
		to, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		for n := max(from+1, 1); n <= min(to, maxRound); n++ {
			seen[n] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func leagueOf(cell string) string {
	if cell == "" {
		return ""
	}
	if l, ok := normalize.League(cell); ok {
		return l
	}
	return normalize.Display(cell)
}

func yearOf(cell string) int {
	n, err := strconv.Atoi(firstInt.FindString(cell))
	if err != nil {
		return 0
	}
	return n
}

// editionFromPath guesses league and year from directory names and the
// file stem, e.g. zawodnicy/2024/Zawodnicy_1Liga_2024.csv.
func editionFromPath(path string) (league string, year int) {
	segments := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, seg := range append(segments, stem) {
		if l, ok := normalize.League(seg); ok {
			league = l
			break
		}
	}
	for _, seg := range segments {
		if yearSegment.MatchString(seg) {
			year, _ = strconv.Atoi(seg)
			return league, year
		}
	}
	if m := yearInName.FindString(filepath.Base(path)); m != "" {
		year, _ = strconv.Atoi(m)
	}
	return league, year
}

func aliasesOf(f source.Field) []string {
	for _, s := range source.RosterSpecs {
		if s.Field == f {
			return s.Aliases
		}
	}
	return nil
}

func nameAliases() []string {
	out := append([]string(nil), aliasesOf(source.FieldCompetitor)...)
	out = append(out, aliasesOf(source.FieldFirstName)...)
	return append(out, aliasesOf(source.FieldLastName)...)
}
