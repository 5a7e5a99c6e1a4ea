package record

import (
	"fmt"
	"strconv"

	"github.com/albapepper/regatta-data/internal/config"
)

// FromTables rebuilds the entity records of a set from rendered tables, as
// read back from an output directory. Diagnostic tables are ignored and
// missing tables leave their slice empty.
func FromTables(tables []Table) (*Set, error) {
	s := &Set{}
	for _, t := range tables {
		var err error
		switch t.Name {
		case config.ClubsTable:
			s.Clubs, err = parseRows(t, func(r *row) Club {
				return Club{r.str("abbreviation"), r.str("key"), r.str("name"), r.str("group_id"), r.integer("occurrences")}
			})
		case config.ClubVariantsTable:
			s.ClubVariants, err = parseRows(t, func(r *row) ClubVariant {
				return ClubVariant{r.str("variant_id"), r.str("abbreviation"), r.str("key"), r.str("name"), r.str("group_id"), r.integer("occurrences")}
			})
		case config.CompetitorsTable:
			s.Competitors, err = parseRows(t, func(r *row) Competitor {
				return Competitor{r.str("competitor_id"), r.str("full_name"), r.str("normalized_name"), r.str("source")}
			})
		case config.RegattasTable:
			s.Regattas, err = parseRows(t, func(r *row) Regatta {
				return Regatta{r.str("regatta_id"), r.str("league"), r.integer("year"), r.integer("round"), r.str("city"), r.str("name")}
			})
		case config.RacesTable:
			s.Races, err = parseRows(t, func(r *row) Race {
				return Race{r.str("race_id"), r.str("regatta_id"), r.integer("race_index"), r.str("race_code"), r.flag("is_final")}
			})
		case config.PlacementsTable:
			s.Placements, err = parseRows(t, func(r *row) Placement {
				return Placement{
					r.str("placement_id"), r.str("race_id"), r.str("club_variant_id"), r.str("club"),
					r.decimal("place"), r.integer("penalty"), r.integer("boat_number"),
				}
			})
		case config.ResultsTable:
			s.Results, err = parseRows(t, func(r *row) Result {
				return Result{r.str("result_id"), r.str("regatta_id"), r.str("club"), r.str("club_variant_id"), r.integer("place")}
			})
		case config.ParticipationsTable:
			s.Participations, err = parseRows(t, func(r *row) Participation {
				return Participation{
					ID: r.str("participation_id"), CompetitorID: r.str("competitor_id"), RegattaID: r.str("regatta_id"),
					Club: r.str("club"), ClubVariantID: r.str("club_variant_id"), Training: r.str("training") == "1",
				}
			})
		}
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.Name, err)
		}
	}
	return s, nil
}

type row struct {
	index  map[string]int
	values []string
	err    error
}

func (r *row) str(col string) string {
	i, ok := r.index[col]
	if !ok {
		if r.err == nil {
			r.err = fmt.Errorf("missing column %q", col)
		}
		return ""
	}
	if i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

func (r *row) integer(col string) int {
	s := r.str(col)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("column %q: %w", col, err)
	}
	return n
}

func (r *row) decimal(col string) float64 {
	s := r.str(col)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("column %q: %w", col, err)
	}
	return f
}

func (r *row) flag(col string) bool {
	s := r.str(col)
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("column %q: %w", col, err)
	}
	return b
}

func parseRows[T any](t Table, fn func(r *row) T) ([]T, error) {
	index := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		index[c] = i
	}
	out := make([]T, 0, len(t.Rows))
	for n, values := range t.Rows {
		r := &row{index: index, values: values}
		item := fn(r)
		if r.err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, r.err)
		}
		out = append(out, item)
	}
	return out, nil
}
