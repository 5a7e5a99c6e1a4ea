package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/participation"
	"github.com/albapepper/regatta-data/internal/record"
	"github.com/albapepper/regatta-data/internal/roster"
	"github.com/albapepper/regatta-data/internal/source"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fixtureTree lays out two good results files, one without a club column,
// one badly named year folder and a roster.
func fixtureTree(t *testing.T) (resultsDir, rosterPath string) {
	root := t.TempDir()
	resultsDir = filepath.Join(root, "Regaty")
	write(t, filepath.Join(resultsDir, "2024", "Ekstraklasa", "R1", "R1-Gdynia.csv"),
		"Skrót,Klub,R1,R2,M-sce\nYKP,Yacht Klub Polski,1,2,1\nAZS,AZS Gdańsk,2,1,2\n")
	write(t, filepath.Join(resultsDir, "2024", "Ekstraklasa", "R2", "R2-Sopot.csv"),
		"Skrót,Klub,R1,M-sce\nYKP,Yacht Klub Polski,2,2\nPJK,Klub A,1,1\n")
	write(t, filepath.Join(resultsDir, "2024", "Ekstraklasa", "R3", "R3-Puck.csv"),
		"Klub,R1\nYKP,1\n")
	write(t, filepath.Join(resultsDir, "old", "x.csv"), "a\n")

	rosterPath = filepath.Join(root, "zawodnicy", "Zawodnicy_Ekstraklasa_2024.csv")
	write(t, rosterPath,
		"Imię i nazwisko,Klub,Runda\nJan Kowalski,Yacht Klub Polski (YKP),\nAnna Nowak,AZS,1-2\nPiotr Zieliński,XYZ,\n")
	return resultsDir, rosterPath
}

func TestScanResults(t *testing.T) {
	dir, _ := fixtureTree(t)

	res, rr, err := ScanResults(context.Background(), dir, nil, 1, quiet)
	require.NoError(t, err)

	assert.Len(t, res.Regattas, 2)
	assert.Len(t, res.Results, 4)
	assert.Len(t, res.Clubs.Clubs, 3)
	assert.Empty(t, res.Duplicates)
	require.Len(t, res.FileErrors, 2)
	assert.Contains(t, res.FileErrors[1].Reason, "missing column")
	assert.Equal(t, 2, rr.FilesProcessed)
	assert.Equal(t, 2, rr.FilesSkipped)
}

func TestScanResults_WorkerCountDoesNotChangeOutput(t *testing.T) {
	dir, _ := fixtureTree(t)

	one, _, err := ScanResults(context.Background(), dir, nil, 1, quiet)
	require.NoError(t, err)
	many, _, err := ScanResults(context.Background(), dir, nil, 8, quiet)
	require.NoError(t, err)

	assert.Equal(t, one.Regattas, many.Regattas)
	assert.Equal(t, one.Placements, many.Placements)
	assert.Equal(t, one.Clubs.Variants, many.Clubs.Variants)
	assert.Equal(t, one.FileErrors, many.FileErrors)
}

func TestScanResults_CancelledContext(t *testing.T) {
	dir, _ := fixtureTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ScanResults(ctx, dir, nil, 2, quiet)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_EndToEnd(t *testing.T) {
	dir, rosterPath := fixtureTree(t)

	set, rr, err := Run(context.Background(), Options{
		ResultsDir:  dir,
		RosterPaths: []string{rosterPath, filepath.Join(dir, "missing.csv")},
		MaxRound:    config.DefaultMaxRound,
	}, quiet)
	require.NoError(t, err)

	require.Len(t, set.Participations, 3)
	byName := map[string]int{}
	for _, p := range set.Participations {
		byName[p.Competitor]++
		assert.NotEmpty(t, p.ClubVariantID)
		assert.False(t, p.Training)
	}
	assert.Equal(t, map[string]int{"Jan Kowalski": 2, "Anna Nowak": 1}, byName)

	require.Len(t, set.Unresolved, 2)
	assert.Equal(t, string(participation.ReasonNoResult), set.Unresolved[0].Reason)
	assert.Equal(t, 2, set.Unresolved[0].Round)
	assert.Equal(t, string(participation.ReasonUnknownClub), set.Unresolved[1].Reason)

	assert.Len(t, set.Competitors, 2)
	assert.Len(t, set.Clubs, 3)
	assert.Len(t, set.FileErrors, 3)
	assert.Equal(t, 3, rr.FilesProcessed)
	assert.Equal(t, 3, rr.FilesSkipped)
	assert.Len(t, rr.Errors, 3)
	assert.Contains(t, rr.Summary(), "participations=3")
}

func TestRun_IsDeterministic(t *testing.T) {
	dir, rosterPath := fixtureTree(t)
	opts := Options{ResultsDir: dir, RosterPaths: []string{rosterPath}, MaxRound: config.DefaultMaxRound}

	a, _, err := Run(context.Background(), opts, quiet)
	require.NoError(t, err)
	b, _, err := Run(context.Background(), opts, quiet)
	require.NoError(t, err)

	assert.Equal(t, a.Tables(), b.Tables())
}

func TestReconcile_FromTables(t *testing.T) {
	dir, rosterPath := fixtureTree(t)
	opts := Options{ResultsDir: dir, RosterPaths: []string{rosterPath}, MaxRound: config.DefaultMaxRound}

	full, _, err := Run(context.Background(), opts, quiet)
	require.NoError(t, err)

	loaded, err := record.FromTables(full.Tables())
	require.NoError(t, err)
	base := &record.Set{
		Clubs:        loaded.Clubs,
		ClubVariants: loaded.ClubVariants,
		Regattas:     loaded.Regattas,
		Results:      loaded.Results,
	}

	rr, err := Reconcile(context.Background(), base, opts, quiet)
	require.NoError(t, err)
	assert.Equal(t, full.Participations, base.Participations)
	assert.Equal(t, full.Unresolved, base.Unresolved)
	assert.Equal(t, 3, rr.Participations)
}

func TestVariantIndex(t *testing.T) {
	idx := NewVariantIndex(
		[]record.Club{{Abbreviation: "YKP", Key: "YKP", Name: "Yacht Klub Polski"}},
		[]record.ClubVariant{
			{ID: "1", Key: "YKP", Name: "YKP Gdynia"},
			{ID: "2", Key: "YKP", Name: "Yacht Klub Polski"},
		})

	id, ok := idx.VariantID(" ykp ")
	assert.True(t, ok)
	assert.Equal(t, "2", id)
	_, ok = idx.VariantID("AZS")
	assert.False(t, ok)
}

func TestCandidates_FallbacksAndParsing(t *testing.T) {
	s := &source.Sheet{
		Path:   filepath.Join("zawodnicy", "2023", "Zawodnicy_1Liga.csv"),
		Header: []string{"Imię", "Nazwisko", "Zespół", "numer rundy", "Regaty", "ID_Zawodnika"},
		Rows: [][]string{
			{"Jan", "Kowalski", "AZS Gdańsk", "1, 3", "Świnoujście (EX) / Szczecin (1L)", "98255864.0"},
			{"Anna", "Nowak", "PJK", "2.0", "", ""},
		},
	}

	cs, err := Candidates(s, Defaults{})
	require.NoError(t, err)
	require.Len(t, cs, 2)

	assert.Equal(t, "Jan Kowalski", cs[0].FullName)
	assert.Equal(t, "AZS", cs[0].Club)
	assert.Equal(t, []int{1, 3}, cs[0].Rounds)
	assert.Equal(t, "Ekstraklasa", cs[0].League, "regatta description wins over the path")
	assert.Equal(t, 2023, cs[0].Year)
	assert.Equal(t, "98255864.0", cs[0].CompetitorID)
	assert.Equal(t, 2, cs[0].Line)

	assert.Equal(t, "1 Liga", cs[1].League)
	assert.Equal(t, []int{2}, cs[1].Rounds)
}

func TestCandidates_MissingColumns(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		field  source.Field
	}{
		{"no club", []string{"Zawodnik", "Liga", "Rok"}, source.FieldClub},
		{"no name", []string{"Klub", "Liga", "Rok"}, source.FieldCompetitor},
		{"no league", []string{"Zawodnik", "Klub", "Rok"}, source.FieldLeague},
		{"no year", []string{"Zawodnik", "Klub", "Liga"}, source.FieldYear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Candidates(&source.Sheet{Path: "roster.csv", Header: tt.header}, Defaults{})

			var mc *source.MissingColumnError
			require.True(t, errors.As(err, &mc))
			assert.Equal(t, tt.field, mc.Field)
			assert.Equal(t, "roster.csv", mc.File)
		})
	}
}

func TestCandidates_Defaults(t *testing.T) {
	s := &source.Sheet{Path: "roster.csv", Header: []string{"Zawodnik", "Klub"}, Rows: [][]string{{"Jan Kowalski", "YKP"}}}

	cs, err := Candidates(s, Defaults{League: "Ekstraklasa", Year: 2024})
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "Ekstraklasa", cs[0].League)
	assert.Equal(t, 2024, cs[0].Year)
	assert.Nil(t, cs[0].Rounds)
}

func TestClubTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Yacht Klub Polski (YKP)", "YKP"},
		{"  YKP ", "YKP"},
		{"AZS Gdańsk", "AZS"},
		{"Yacht Klub Polski", "Yacht Klub Polski"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClubTag(tt.in), "ClubTag(%q)", tt.in)
	}
}

func TestParseRounds(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"3", []int{3}},
		{"3.0", []int{3}},
		{"1,2,5", []int{1, 2, 5}},
		{"1-3", []int{1, 2, 3}},
		{"5, 1-2, 2", []int{1, 2, 5}},
		{"Runda 4", []int{4}},
		{"0", nil},
		{"", nil},
		{"3.05", []int{3}},
		{"1.0-3.0", []int{1, 2, 3}},
		{"10-30000000", []int{10, 11, 12}},
		{"15", []int{15}},
		{"14-16", []int{14}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRounds(tt.in, config.DefaultMaxRound), "ParseRounds(%q)", tt.in)
	}
	assert.Equal(t, []int{1, 2, 3}, ParseRounds("1-9", 3))
}

func TestMigrateIDs(t *testing.T) {
	s := &source.Sheet{
		Path:   "roster.csv",
		Header: []string{"ID_Zawodnika", "Zawodnik", "Skrót"},
		Rows: [][]string{
			{"75808", "Jan Kowalski", "YKP Gdynia"},
			{"98255864", "Jan Kowalski", "YKP"},
			{"12345", "Jan Kowalski", "YKP"},
			{"12345", "Anna Nowak", "AZS"},
			{"75808", "Jan Kowalski", "YKP"},
			{"", "Bez Numeru", "AZS"},
		},
	}

	m, err := MigrateIDs([]*source.Sheet{s})
	require.NoError(t, err)

	assert.Equal(t, 1, m.Canonical)
	assert.Equal(t, 1, m.Skipped)
	require.Len(t, m.Migrations, 3)
	assert.Equal(t, "12345", m.Migrations[0].OldID)
	assert.Equal(t, roster.SchemeUnknown, m.Migrations[0].Scheme)
	assert.Equal(t, record.IDMigration{OldID: "75808", NewID: "98255864", FullName: "Jan Kowalski", Scheme: roster.SchemeClubSalted}, m.Migrations[2])

	require.Len(t, m.Collisions, 1)
	assert.Equal(t, "12345", m.Collisions[0].ID)
	assert.Equal(t, 2, m.Collisions[0].Count)
}

func TestRunResult_AddAndSummary(t *testing.T) {
	var r RunResult
	r.Add(RunResult{FilesProcessed: 2, Participations: 5})
	r.AddError("boom")
	r.AddErrorf("file %s", "a.csv")

	assert.Equal(t, 2, r.FilesProcessed)
	assert.Equal(t, []string{"boom", "file a.csv"}, r.Errors)
	assert.Contains(t, r.Summary(), "files=2")
	assert.Contains(t, r.Summary(), "errors=2")
}
