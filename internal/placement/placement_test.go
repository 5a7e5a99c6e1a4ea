package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		max         int
		wantValue   float64
		wantPenalty int
	}{
		{"penalty tag", "(DSQ)", 12, 12, 1},
		{"penalty tag with number", "7 (DNF)", 12, 12, 1},
		{"redress literal", "2.5 (RDG)", 12, 2.5, 1},
		{"plain number", "7", 12, 7, 0},
		{"empty", "", 10, 10, 0},
		{"whitespace only", "   ", 10, 10, 0},
		{"combined penalty literal", "13 (DSQ + SCP)", 12, 13, 1},
		{"typo literal", "10 (OCS0", 12, 10, 1},
		{"decimal", "3.5", 12, 3.5, 0},
		{"number with noise", " 4 pkt ", 12, 4, 0},
		{"unknown annotation keeps number", "6 (XYZ)", 12, 6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.raw, tt.max)

			require.NoError(t, err)
			assert.InDelta(t, tt.wantValue, p.Value, 1e-9)
			assert.Equal(t, tt.wantPenalty, p.PenaltyFlag())
		})
	}
}

func TestParse_MalformedFallsBack(t *testing.T) {
	p, err := Parse("abc", 9)

	var mErr *MalformedCellError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "abc", mErr.Raw)
	assert.InDelta(t, 9.0, p.Value, 1e-9)
	assert.False(t, p.Penalty)
}

func TestParse_TypoLiteralNotCorrected(t *testing.T) {
	p, err := Parse("10 (OCS)", 12)

	require.NoError(t, err)
	assert.InDelta(t, 12.0, p.Value, 1e-9, "the corrected spelling is a regular penalty tag")
	assert.True(t, p.Penalty)
}

func TestMaxPlace(t *testing.T) {
	assert.Equal(t, 0, MaxPlace(nil))
	assert.Equal(t, 0, MaxPlace([]string{"", "(DSQ)", "x"}))
	assert.Equal(t, 12, MaxPlace([]string{"3", "12", "(DNF)", "7 (DSQ)"}))
	assert.Equal(t, 13, MaxPlace([]string{"2.5 (RDG)", "13 (DSQ + SCP)", "13.5"}))
}

func TestFirstNumber(t *testing.T) {
	v, ok := FirstNumber("ab 12.75 cd 3")
	require.True(t, ok)
	assert.InDelta(t, 12.75, v, 1e-9)

	_, ok = FirstNumber("none")
	assert.False(t, ok)
}

func TestRaceColumns(t *testing.T) {
	header := []string{"Skrót", "R10", "FNL", "R2", "F1", "Razem", "R1"}

	cols := RaceColumns(header)

	require.Len(t, cols, 5)
	assert.Equal(t, RaceColumn{Column: 4, Code: "F1", Index: 1}, cols[0])
	assert.Equal(t, RaceColumn{Column: 6, Code: "R1", Index: 1}, cols[1])
	assert.Equal(t, "R2", cols[2].Code)
	assert.Equal(t, "R10", cols[3].Code)
	assert.Equal(t, RaceColumn{Column: 2, Code: FinalCode, Final: true}, cols[4])
}

func TestRaceColumns_None(t *testing.T) {
	assert.Empty(t, RaceColumns([]string{"Skrót", "Klub", "M-sce"}))
}
