// Package snapshot keeps a local SQLite record of the IDs each run emitted,
// so a later run over the same inputs can be checked for drift.
package snapshot

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/albapepper/regatta-data/internal/record"
)

// ErrNoSnapshot is returned by Latest on an empty database.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// Change kinds.
const (
	Added   = "added"
	Removed = "removed"
	Changed = "changed"
)

// Entry is the fingerprint of one keyed row.
type Entry struct {
	Table string
	ID    string
	Hash  string
}

// Change is one difference between two snapshots.
type Change struct {
	Table string
	ID    string
	Kind  string
}

// Run is a stored snapshot.
type Run struct {
	ID      string
	Summary string
	Entries []Entry
}

type DB struct {
	sql *sql.DB
}

// Open opens or creates the snapshot database at path.
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id     TEXT NOT NULL UNIQUE,
  summary    TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS entries (
  run_id     TEXT NOT NULL,
  table_name TEXT NOT NULL,
  id         TEXT NOT NULL,
  row_hash   TEXT NOT NULL,
  PRIMARY KEY (run_id, table_name, id)
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Fingerprint hashes every row of the keyed tables. Only the first row of
// a repeated ID is kept.
func Fingerprint(tables []record.Table) []Entry {
	var out []Entry
	for _, t := range tables {
		if !record.Keyed(t.Name) {
			continue
		}
		seen := map[string]bool{}
		for _, row := range t.Rows {
			if len(row) == 0 || seen[row[0]] {
				continue
			}
			seen[row[0]] = true
			sum := sha256.Sum256([]byte(strings.Join(row, "\x1f")))
			out = append(out, Entry{Table: t.Name, ID: row[0], Hash: hex.EncodeToString(sum[:])})
		}
	}
	sortEntries(out)
	return out
}

// Save stores a snapshot and returns its run ID.
func (d *DB) Save(ctx context.Context, entries []Entry, summary string) (runID string, err error) {
	runID = uuid.NewString()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO runs(run_id, summary) VALUES(?, ?)`, runID, summary); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries(run_id, table_name, id, row_hash) VALUES(?,?,?,?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err = stmt.ExecContext(ctx, runID, e.Table, e.ID, e.Hash); err != nil {
			return "", fmt.Errorf("insert %s %s: %w", e.Table, e.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// Latest returns the most recently saved snapshot.
func (d *DB) Latest(ctx context.Context) (*Run, error) {
	run := &Run{}
	var summary sql.NullString
	err := d.sql.QueryRowContext(ctx, `SELECT run_id, summary FROM runs ORDER BY seq DESC LIMIT 1`).Scan(&run.ID, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}
	run.Summary = summary.String

	rows, err := d.sql.QueryContext(ctx, `SELECT table_name, id, row_hash FROM entries WHERE run_id = ?`, run.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Table, &e.ID, &e.Hash); err != nil {
			return nil, err
		}
		run.Entries = append(run.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortEntries(run.Entries)
	return run, nil
}

// Diff lists the IDs added, removed or changed going from prev to next,
// ordered by table and ID.
func Diff(prev, next []Entry) []Change {
	type key struct{ table, id string }
	old := make(map[key]string, len(prev))
	for _, e := range prev {
		old[key{e.Table, e.ID}] = e.Hash
	}

	var out []Change
	for _, e := range next {
		k := key{e.Table, e.ID}
		h, ok := old[k]
		switch {
		case !ok:
			out = append(out, Change{Table: e.Table, ID: e.ID, Kind: Added})
		case h != e.Hash:
			out = append(out, Change{Table: e.Table, ID: e.ID, Kind: Changed})
		}
		delete(old, k)
	}
	for k := range old {
		out = append(out, Change{Table: k.table, ID: k.id, Kind: Removed})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Table != out[j].Table {
			return out[i].Table < out[j].Table
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortEntries(es []Entry) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].Table != es[j].Table {
			return es[i].Table < es[j].Table
		}
		return es[i].ID < es[j].ID
	})
}
