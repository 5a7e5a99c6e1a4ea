package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/record"
)

func tables(city string) []record.Table {
	set := &record.Set{
		Regattas: []record.Regatta{
			{ID: "94367801", League: "Ekstraklasa", Year: 2024, Round: 3, City: city},
			{ID: "10285883", League: "1 Liga", Year: 2023, Round: 1},
		},
		FileErrors: []record.FileError{{File: "a.csv", Reason: "x"}},
	}
	return set.Tables()
}

func TestFingerprint_KeyedTablesOnly(t *testing.T) {
	entries := Fingerprint(tables("Gdynia"))

	require.Len(t, entries, 2)
	assert.Equal(t, config.RegattasTable, entries[0].Table)
	assert.Equal(t, "10285883", entries[0].ID)
	assert.Len(t, entries[0].Hash, 64)
	assert.Equal(t, entries, Fingerprint(tables("Gdynia")))
	assert.NotEqual(t, entries[1].Hash, Fingerprint(tables("Sopot"))[1].Hash)
}

func TestDiff(t *testing.T) {
	prev := []Entry{{"regattas", "1", "a"}, {"regattas", "2", "b"}, {"races", "9", "c"}}
	next := []Entry{{"regattas", "1", "a"}, {"regattas", "2", "x"}, {"regattas", "3", "d"}}

	changes := Diff(prev, next)

	assert.Equal(t, []Change{
		{Table: "races", ID: "9", Kind: Removed},
		{Table: "regattas", ID: "2", Kind: Changed},
		{Table: "regattas", ID: "3", Kind: Added},
	}, changes)
	assert.Empty(t, Diff(next, next))
}

func TestDB_SaveAndLatest(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Latest(ctx)
	assert.True(t, errors.Is(err, ErrNoSnapshot))

	first := Fingerprint(tables("Gdynia"))
	_, err = db.Save(ctx, first, "first")
	require.NoError(t, err)

	second := Fingerprint(tables("Sopot"))
	id, err := db.Save(ctx, second, "second")
	require.NoError(t, err)

	run, err := db.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
	assert.Equal(t, "second", run.Summary)
	assert.Equal(t, second, run.Entries)
	assert.Equal(t, []Change{{Table: config.RegattasTable, ID: "94367801", Kind: Changed}}, Diff(first, run.Entries))
}
