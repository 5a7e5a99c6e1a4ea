package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/regatta-data/internal/ident"
	"github.com/albapepper/regatta-data/internal/record"
)

func TestCleanID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{" 98255864 ", "98255864"},
		{"98255864.0", "98255864"},
		{"1234567", "01234567"},
		{"123456", "00123456"},
		{"12345", "12345"},
		{"AB-12", "AB-12"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanID(tt.in), "CleanID(%q)", tt.in)
	}
}

func TestLegacyClubSaltedID_KnownValues(t *testing.T) {
	assert.Equal(t, "75808", LegacyClubSaltedID("Jan Kowalski", "YKP Gdynia"))
	assert.Equal(t, "44890", LegacyClubSaltedID("Łukasz Żak", "AZS"))
	assert.Equal(t, "87021", LegacyClubSaltedID("Anna", "PJK"))
	assert.Equal(t, "", LegacyClubSaltedID("", "PJK"))
}

func TestClassify(t *testing.T) {
	canonical := ident.CompetitorID("Jan Kowalski")

	scheme, id := Classify(canonical, "Jan Kowalski", "")
	assert.Equal(t, SchemeCanonical, scheme)
	assert.Equal(t, canonical, id)

	scheme, id = Classify("87654321", "Someone Else", "")
	assert.Equal(t, SchemeCanonical, scheme, "8-digit IDs from an authority are trusted")
	assert.Equal(t, "87654321", id)

	scheme, _ = Classify("75808", "Jan Kowalski", "YKP Gdynia")
	assert.Equal(t, SchemeClubSalted, scheme)

	scheme, _ = Classify("4242", "Jan Kowalski", "YKP Gdynia")
	assert.Equal(t, SchemeUnknown, scheme)

	scheme, _ = Classify("X1", "Jan Kowalski", "")
	assert.Equal(t, SchemeUnknown, scheme)
}

func TestDirectory_LookupAndConflicts(t *testing.T) {
	d := NewDirectory()
	d.Add("Jan Kowalski", "11111111")
	d.Add("JAN  KOWALSKI", "11111111")
	d.Add("Anna Nowak", "22222222")
	d.Add("Anna Nowak", "20000000")
	d.Add("", "33333333")
	d.Add("Nobody", "")

	assert.Equal(t, 2, d.Len())

	id, ok := d.Lookup("jan kowalski")
	require.True(t, ok)
	assert.Equal(t, "11111111", id)

	id, ok = d.Lookup("Anna Nowak")
	require.True(t, ok)
	assert.Equal(t, "20000000", id)

	conflicts := d.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "anna nowak", conflicts[0].Name)
	assert.Equal(t, []string{"20000000", "22222222"}, conflicts[0].IDs)

	var nilDir *Directory
	_, ok = nilDir.Lookup("Jan Kowalski")
	assert.False(t, ok)
}

func TestResolver_Resolve_ExplicitCanonicalID(t *testing.T) {
	r := NewResolver(nil, true)

	res, err := r.Resolve("12345678", "Jan Kowalski", "ABC")

	require.NoError(t, err)
	assert.Equal(t, "12345678", res.Competitor.ID)
	assert.Equal(t, record.CompetitorFromRoster, res.Competitor.Source)
	assert.Nil(t, res.Migration)
}

func TestResolver_Resolve_DerivedFromName(t *testing.T) {
	r := NewResolver(nil, false)

	res, err := r.Resolve("", "  Jan   KOWALSKI ", "ABC")

	require.NoError(t, err)
	assert.Equal(t, ident.CompetitorID("Jan Kowalski"), res.Competitor.ID)
	assert.Equal(t, "Jan KOWALSKI", res.Competitor.FullName)
	assert.Equal(t, "jan kowalski", res.Competitor.NormalizedName)
	assert.Equal(t, record.CompetitorDerived, res.Competitor.Source)
}

func TestResolver_Resolve_DirectoryWins(t *testing.T) {
	d := NewDirectory()
	d.Add("Jan Kowalski", "55555555")
	r := NewResolver(d, false)

	res, err := r.Resolve("", "Jan Kowalski", "")

	require.NoError(t, err)
	assert.Equal(t, "55555555", res.Competitor.ID)
	assert.Equal(t, record.CompetitorFromDirectory, res.Competitor.Source)
}

func TestResolver_Resolve_StrictRejectsUnknownName(t *testing.T) {
	r := NewResolver(NewDirectory(), true)

	_, err := r.Resolve("", "Jan Kowalski", "")

	assert.ErrorIs(t, err, ErrNotInDirectory)
}

func TestResolver_Resolve_NoIdentity(t *testing.T) {
	r := NewResolver(nil, false)

	_, err := r.Resolve(" ", "  ", "ABC")

	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestResolver_Resolve_MigratesLegacyID(t *testing.T) {
	r := NewResolver(nil, true)

	res, err := r.Resolve("75808", "Jan Kowalski", "YKP Gdynia")

	require.NoError(t, err)
	assert.Equal(t, ident.CompetitorID("Jan Kowalski"), res.Competitor.ID)
	require.NotNil(t, res.Migration)
	assert.Equal(t, "75808", res.Migration.OldID)
	assert.Equal(t, res.Competitor.ID, res.Migration.NewID)
	assert.Equal(t, SchemeClubSalted, res.Migration.Scheme)
}

func TestResolver_Resolve_LegacyIDWithoutName(t *testing.T) {
	r := NewResolver(nil, false)

	_, err := r.Resolve("75808", "", "YKP Gdynia")

	assert.ErrorIs(t, err, ErrLegacyID)
}
