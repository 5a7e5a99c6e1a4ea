package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/ident"
	"github.com/albapepper/regatta-data/internal/normalize"
	"github.com/albapepper/regatta-data/internal/record"
	"github.com/albapepper/regatta-data/internal/roster"
	"github.com/albapepper/regatta-data/internal/source"
)

// Migration is the ID migration map of a set of roster files.
type Migration struct {
	Migrations []record.IDMigration
	Collisions []record.DuplicateID
	Canonical  int
	Skipped    int // rows without an ID or a name
}

// MigrateIDs classifies every explicit competitor ID in the sheets and maps
// each non-canonical one to the name-derived canonical ID. A canonical ID
// shared by several distinct names, or a legacy ID mapped to several
// canonical IDs, is reported as a collision.
func MigrateIDs(sheets []*source.Sheet) (Migration, error) {
	var m Migration
	seen := map[[2]string]bool{}
	namesByNew := map[string]map[string]bool{}
	newByOld := map[string]map[string]bool{}

	for _, s := range sheets {
		cols, err := source.MatchSheet(s, source.RosterSpecs)
		if err != nil {
			return m, err
		}
		if !cols.Has(source.FieldCompetitorID) {
			return m, &source.MissingColumnError{File: s.Path, Field: source.FieldCompetitorID, Accepted: aliasesOf(source.FieldCompetitorID)}
		}

		for _, row := range s.Rows {
			id := roster.CleanID(s.Cell(row, cols.Index(source.FieldCompetitorID)))
			name := s.Cell(row, cols.Index(source.FieldCompetitor))
			if name == "" {
				name = s.Cell(row, cols.Index(source.FieldFirstName)) + " " + s.Cell(row, cols.Index(source.FieldLastName))
			}
			name = normalize.Display(name)
			if id == "" || name == "" {
				m.Skipped++
				continue
			}

			scheme, _ := roster.Classify(id, name, ClubTag(s.Cell(row, cols.Index(source.FieldClub))))
			if scheme == roster.SchemeCanonical {
				m.Canonical++
				continue
			}
			newID := ident.CompetitorID(name)
			if seen[[2]string{id, newID}] {
				continue
			}
			seen[[2]string{id, newID}] = true

			m.Migrations = append(m.Migrations, record.IDMigration{OldID: id, NewID: newID, FullName: name, Scheme: scheme})
			addTo(namesByNew, newID, normalize.Name(name))
			addTo(newByOld, id, newID)
		}
	}

	sort.Slice(m.Migrations, func(i, j int) bool {
		if m.Migrations[i].OldID != m.Migrations[j].OldID {
			return m.Migrations[i].OldID < m.Migrations[j].OldID
		}
		return m.Migrations[i].NewID < m.Migrations[j].NewID
	})
	m.Collisions = append(m.Collisions, collisions(namesByNew, "new ID shared by names")...)
	m.Collisions = append(m.Collisions, collisions(newByOld, "old ID maps to new IDs")...)
	return m, nil
}

func addTo(index map[string]map[string]bool, key, value string) {
	if index[key] == nil {
		index[key] = map[string]bool{}
	}
	index[key][value] = true
}

func collisions(index map[string]map[string]bool, what string) []record.DuplicateID {
	var out []record.DuplicateID
	for key, values := range index {
		if len(values) < 2 {
			continue
		}
		list := make([]string, 0, len(values))
		for v := range values {
			list = append(list, v)
		}
		sort.Strings(list)
		out = append(out, record.DuplicateID{
			Table:  config.IDMigrationsTable,
			ID:     key,
			Count:  len(list),
			Detail: fmt.Sprintf("%s: %s", what, strings.Join(list, ", ")),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
