package regatta

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/regatta-data/internal/club"
	"github.com/albapepper/regatta-data/internal/source"
)

var edition = source.Edition{League: "Ekstraklasa", Year: 2024, Round: 3, City: "Gdynia"}

func sheet() *source.Sheet {
	return &source.Sheet{
		Path:   "Regaty/2024/Ekstraklasa/R3/R3-Gdynia.csv",
		Header: []string{"Skrót", "Klub", "R1", "R2", "FNL", "M-sce"},
		Rows: [][]string{
			{"YKP", "Yacht Klub Polski", "1", "(DSQ)", "2", "1"},
			{"AZS", "", "3", "2", "abc", "2."},
			{"", "Łódź Sailing", "2", "1", "", ""},
			{"", "", "4", "", "", ""},
		},
	}
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "94367801", ID("Ekstraklasa", 2024, 3))
	assert.Equal(t, "05341965", RaceID("Ekstraklasa", 2024, 3, 1, "R1"))
	assert.Equal(t, "80452458", RaceID("Ekstraklasa", 2024, 3, 0, "FNL"))
	assert.Equal(t, "51228297", ResultID("Ekstraklasa", 2024, 3, " y k p "))
	assert.Equal(t, PlacementID("Ekstraklasa", 2024, 3, 1, "R1", "ykp"), PlacementID("Ekstraklasa", 2024, 3, 1, "R1", "YKP"))
	assert.NotEqual(t, PlacementID("Ekstraklasa", 2024, 3, 1, "R1", "YKP"), PlacementID("Ekstraklasa", 2024, 3, 1, "F1", "YKP"))
}

func TestFromSheet_Regatta(t *testing.T) {
	b, err := FromSheet(sheet(), edition)
	require.NoError(t, err)

	assert.Equal(t, "94367801", b.Regatta.ID)
	assert.Equal(t, "Ekstraklasa - Runda 3", b.Regatta.Name)
	assert.Equal(t, "Gdynia", b.Regatta.City)
	assert.Equal(t, 4, b.MaxPlace, "rows without a club still count toward max place")
	assert.Equal(t, 1, b.NoClub)
	assert.Equal(t, []string{"abc"}, b.Malformed)
}

func TestFromSheet_Races(t *testing.T) {
	b, err := FromSheet(sheet(), edition)
	require.NoError(t, err)

	require.Len(t, b.Races, 3)
	assert.Equal(t, "R1", b.Races[0].Code)
	assert.Equal(t, "R2", b.Races[1].Code)
	assert.Equal(t, "FNL", b.Races[2].Code)
	assert.True(t, b.Races[2].Final)
	assert.Equal(t, 0, b.Races[2].Index)
	for _, r := range b.Races {
		assert.Equal(t, b.Regatta.ID, r.RegattaID)
	}
}

func TestFromSheet_Placements(t *testing.T) {
	b, err := FromSheet(sheet(), edition)
	require.NoError(t, err)

	require.Len(t, b.Placements, 9)

	ykpR2 := b.Placements[1]
	assert.Equal(t, "YKP", ykpR2.Club)
	assert.Equal(t, 4.0, ykpR2.Place)
	assert.Equal(t, 1, ykpR2.Penalty)
	assert.Equal(t, "14338062", ykpR2.ClubVariantID)

	azsFinal := b.Placements[5]
	assert.Equal(t, "AZS", azsFinal.Club)
	assert.Equal(t, 4.0, azsFinal.Place, "malformed cell falls back to max place")
	assert.Equal(t, 0, azsFinal.Penalty)
	assert.Equal(t, club.VariantID("AZS", ""), azsFinal.ClubVariantID)

	synth := b.Placements[6]
	assert.Equal(t, "DSAILI", synth.Club)
	assert.Equal(t, 2.0, synth.Place)
	assert.Equal(t, 4.0, b.Placements[8].Place, "empty cell is max place")

	ids := map[string]bool{}
	for _, p := range b.Placements {
		ids[p.ID] = true
	}
	assert.Len(t, ids, 9)
}

func TestFromSheet_ResultsAndObservations(t *testing.T) {
	b, err := FromSheet(sheet(), edition)
	require.NoError(t, err)

	require.Len(t, b.Results, 2)
	assert.Equal(t, "51228297", b.Results[0].ID)
	assert.Equal(t, 1, b.Results[0].Place)
	assert.Equal(t, "AZS", b.Results[1].Club)
	assert.Equal(t, 2, b.Results[1].Place)

	require.Len(t, b.Observations, 3)
	assert.Equal(t, club.Observation{Abbreviation: "DSAILI", Name: "Łódź Sailing", Source: sheet().Path}, b.Observations[2])
}

func TestFromSheet_NoPlaceColumn(t *testing.T) {
	s := &source.Sheet{Path: "a.csv", Header: []string{"Zespół", "R1"}, Rows: [][]string{{"YKP", "1"}}}

	b, err := FromSheet(s, edition)
	require.NoError(t, err)
	assert.Empty(t, b.Results)
	assert.Len(t, b.Placements, 1)
}

func TestFromSheet_MissingClubColumn(t *testing.T) {
	s := &source.Sheet{Path: "a.csv", Header: []string{"Klub", "R1"}}

	_, err := FromSheet(s, edition)

	var mc *source.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, "a.csv", mc.File)
}
