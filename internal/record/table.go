package record

import (
	"sort"
	"strconv"

	"github.com/albapepper/regatta-data/internal/config"
)

// Table is a flat, string-valued rendition of one record set.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Column layouts of every output table.
var (
	ClubColumns            = []string{"abbreviation", "key", "name", "group_id", "occurrences"}
	ClubVariantColumns     = []string{"variant_id", "abbreviation", "key", "name", "group_id", "occurrences"}
	ClubConflictColumns    = []string{"key", "abbreviation", "name", "count", "representative"}
	CompetitorColumns      = []string{"competitor_id", "full_name", "normalized_name", "source"}
	RegattaColumns         = []string{"regatta_id", "league", "year", "round", "city", "name"}
	RaceColumns            = []string{"race_id", "regatta_id", "race_index", "race_code", "is_final"}
	PlacementColumns       = []string{"placement_id", "race_id", "club_variant_id", "club", "place", "penalty", "boat_number"}
	ResultColumns          = []string{"result_id", "regatta_id", "club", "club_variant_id", "place"}
	ParticipationColumns   = []string{"participation_id", "competitor_id", "regatta_id", "club", "club_variant_id", "training"}
	ParticipationQCColumns = []string{"participation_id", "competitor_id", "regatta_id", "club", "place", "league", "year", "round", "regatta", "competitor"}
	UnresolvedColumns      = []string{"source", "line", "competitor", "club", "league", "year", "round", "reason", "detail"}
	DuplicateIDColumns     = []string{"table", "id", "count", "detail"}
	IDMigrationColumns     = []string{"old_id", "new_id", "full_name", "scheme"}
	FileErrorColumns       = []string{"file", "reason"}
)

var keyed = map[string]bool{
	config.ClubVariantsTable:   true,
	config.CompetitorsTable:    true,
	config.RegattasTable:       true,
	config.RacesTable:          true,
	config.PlacementsTable:     true,
	config.ResultsTable:        true,
	config.ParticipationsTable: true,
}

// Keyed reports whether a table carries a unique ID in its first column.
func Keyed(table string) bool { return keyed[table] }

// Tables renders the set as tables in a fixed order. Rows are sorted so the
// same set always renders identically.
func (s *Set) Tables() []Table {
	tables := []Table{
		build(config.ClubsTable, ClubColumns, s.Clubs, func(r Club) []string {
			return []string{r.Abbreviation, r.Key, r.Name, r.GroupID, itoa(r.Occurrences)}
		}),
		build(config.ClubVariantsTable, ClubVariantColumns, s.ClubVariants, func(r ClubVariant) []string {
			return []string{r.ID, r.Abbreviation, r.Key, r.Name, r.GroupID, itoa(r.Occurrences)}
		}),
		build(config.ClubConflictsTable, ClubConflictColumns, s.ClubConflicts, func(r ClubConflict) []string {
			return []string{r.Key, r.Abbreviation, r.Name, itoa(r.Count), btoa(r.Representative)}
		}),
		build(config.CompetitorsTable, CompetitorColumns, s.Competitors, func(r Competitor) []string {
			return []string{r.ID, r.FullName, r.NormalizedName, r.Source}
		}),
		build(config.RegattasTable, RegattaColumns, s.Regattas, func(r Regatta) []string {
			return []string{r.ID, r.League, itoa(r.Year), itoa(r.Round), r.City, r.Name}
		}),
		build(config.RacesTable, RaceColumns, s.Races, func(r Race) []string {
			return []string{r.ID, r.RegattaID, itoa(r.Index), r.Code, btoa(r.Final)}
		}),
		build(config.PlacementsTable, PlacementColumns, s.Placements, func(r Placement) []string {
			return []string{r.ID, r.RaceID, r.ClubVariantID, r.Club, ftoa(r.Place), itoa(r.Penalty), itoa(r.BoatNumber)}
		}),
		build(config.ResultsTable, ResultColumns, s.Results, func(r Result) []string {
			return []string{r.ID, r.RegattaID, r.Club, r.ClubVariantID, itoa(r.Place)}
		}),
		build(config.ParticipationsTable, ParticipationColumns, s.Participations, func(r Participation) []string {
			return []string{r.ID, r.CompetitorID, r.RegattaID, r.Club, r.ClubVariantID, trainingFlag(r.Training)}
		}),
		build(config.ParticipationsQCTable, ParticipationQCColumns, s.Participations, func(r Participation) []string {
			return []string{
				r.ID, r.CompetitorID, r.RegattaID, r.Club,
				itoa(r.Place), r.League, itoa(r.Year), itoa(r.Round), r.Regatta, r.Competitor,
			}
		}),
		build(config.UnresolvedTable, UnresolvedColumns, s.Unresolved, func(r Unresolved) []string {
			return []string{r.Source, itoa(r.Line), r.Competitor, r.Club, r.League, itoa(r.Year), itoa(r.Round), r.Reason, r.Detail}
		}),
		build(config.DuplicateIDsTable, DuplicateIDColumns, s.Duplicates, func(r DuplicateID) []string {
			return []string{r.Table, r.ID, itoa(r.Count), r.Detail}
		}),
		build(config.IDMigrationsTable, IDMigrationColumns, s.Migrations, func(r IDMigration) []string {
			return []string{r.OldID, r.NewID, r.FullName, r.Scheme}
		}),
		build(config.FileErrorsTable, FileErrorColumns, s.FileErrors, func(r FileError) []string {
			return []string{r.File, r.Reason}
		}),
	}
	return tables
}

func build[T any](name string, columns []string, items []T, row func(T) []string) Table {
	t := Table{Name: name, Columns: columns, Rows: make([][]string, 0, len(items))}
	for _, it := range items {
		t.Rows = append(t.Rows, row(it))
	}
	SortRows(t.Rows)
	return t
}

// SortRows orders rows column by column.
func SortRows(rows [][]string) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func btoa(b bool) string { return strconv.FormatBool(b) }

// trainingFlag leaves the column empty unless the flag is set.
func trainingFlag(b bool) string {
	if b {
		return "1"
	}
	return ""
}
