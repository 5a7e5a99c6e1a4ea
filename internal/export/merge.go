package export

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/record"
)

// MergeReport summarises a merge.
type MergeReport struct {
	Dirs        int
	Rows        int
	DroppedRows int
	Duplicates  []record.DuplicateID
}

// Merge concatenates the tables of several output directories. Identical
// rows are kept once. An ID that appears with different content is kept
// with its first row and reported in the duplicate_ids table.
func Merge(dirs []string) ([]record.Table, MergeReport, error) {
	report := MergeReport{Dirs: len(dirs)}
	merged := map[string]*record.Table{}
	seenRow := map[string]map[string]bool{}

	for _, dir := range dirs {
		tables, err := ReadDir(dir)
		if err != nil {
			return nil, report, err
		}
		for _, t := range tables {
			m, ok := merged[t.Name]
			if !ok {
				m = &record.Table{Name: t.Name, Columns: t.Columns}
				merged[t.Name] = m
				seenRow[t.Name] = map[string]bool{}
			} else if !slices.Equal(m.Columns, t.Columns) {
				return nil, report, fmt.Errorf("%s: table %s has columns %v, expected %v", dir, t.Name, t.Columns, m.Columns)
			}
			for _, row := range t.Rows {
				k := strings.Join(row, "\x1f")
				if seenRow[t.Name][k] {
					report.DroppedRows++
					continue
				}
				seenRow[t.Name][k] = true
				m.Rows = append(m.Rows, row)
			}
		}
	}

	var out []record.Table
	for _, layout := range Layout() {
		m, ok := merged[layout.Name]
		if !ok {
			m = &record.Table{Name: layout.Name, Columns: layout.Columns}
		}
		if record.Keyed(m.Name) {
			var dups []record.DuplicateID
			m.Rows, dups = firstByID(m.Name, m.Rows)
			report.Duplicates = append(report.Duplicates, dups...)
		}
		out = append(out, *m)
	}

	for i := range out {
		if out[i].Name == config.DuplicateIDsTable {
			for _, d := range report.Duplicates {
				out[i].Rows = append(out[i].Rows, []string{d.Table, d.ID, strconv.Itoa(d.Count), d.Detail})
			}
		}
		record.SortRows(out[i].Rows)
		report.Rows += len(out[i].Rows)
	}
	return out, report, nil
}

func firstByID(table string, rows [][]string) ([][]string, []record.DuplicateID) {
	counts := map[string]int{}
	kept := rows[:0:0]
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		counts[row[0]]++
		if counts[row[0]] == 1 {
			kept = append(kept, row)
		}
	}

	var dups []record.DuplicateID
	for _, row := range kept {
		if n := counts[row[0]]; n > 1 {
			dups = append(dups, record.DuplicateID{
				Table:  table,
				ID:     row[0],
				Count:  n,
				Detail: "same ID with different content across runs",
			})
		}
	}
	return kept, dups
}
