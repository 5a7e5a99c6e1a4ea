// Package export writes record tables to an output directory, one CSV file
// per table, and reads such directories back.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/albapepper/regatta-data/internal/record"
	"github.com/albapepper/regatta-data/internal/source"
)

// Layout lists every table a run writes, in write order, with its columns.
func Layout() []record.Table {
	return (&record.Set{}).Tables()
}

// Path returns the CSV file of a table inside dir.
func Path(dir, table string) string {
	return filepath.Join(dir, table+".csv")
}

// WriteDir writes every table to dir, creating it if needed. Existing files
// are replaced.
func WriteDir(dir string, tables []record.Table) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, t := range tables {
		if err := WriteTable(Path(dir, t.Name), t); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable writes one table. The file is written next to its target and
// renamed into place so readers never see a partial table.
func WriteTable(path string, t record.Table) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp) //nolint:gosec // path is built from the output dir
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadDir reads every known table present in dir. Missing tables are
// skipped; a directory with none of them is an error.
func ReadDir(dir string) ([]record.Table, error) {
	var tables []record.Table
	for _, layout := range Layout() {
		t, err := ReadTable(Path(dir, layout.Name), layout.Name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%s: no output tables found", dir)
	}
	return tables, nil
}

// ReadTable reads one table file written by WriteTable.
func ReadTable(path, name string) (record.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return record.Table{}, err
	}
	s, err := source.LoadCSV(path)
	if err != nil {
		return record.Table{}, err
	}
	return record.Table{Name: name, Columns: s.Header, Rows: s.Rows}, nil
}
