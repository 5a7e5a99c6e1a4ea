// Package regatta builds the records one results sheet contributes: the
// regatta itself, its races, every club placement and the overall results.
package regatta

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/albapepper/regatta-data/internal/club"
	"github.com/albapepper/regatta-data/internal/ident"
	"github.com/albapepper/regatta-data/internal/normalize"
	"github.com/albapepper/regatta-data/internal/placement"
	"github.com/albapepper/regatta-data/internal/record"
	"github.com/albapepper/regatta-data/internal/source"
)

// ID is the identifier of a league round. The host city is not part of it.
func ID(league string, year, round int) string {
	return ident.Generate(ident.EntityRegatta, league, ident.Int("rok", year), ident.Int("runda", round))
}

// RaceID is the identifier of one race of a league round.
func RaceID(league string, year, round, index int, code string) string {
	return ident.Generate(ident.EntityRace, league,
		ident.Int("rok", year),
		ident.Int("runda", round),
		ident.Int("index", index),
		ident.Str("race", code),
	)
}

// PlacementID is the identifier of a club's finish in one race.
func PlacementID(league string, year, round, index int, code, clubAbbr string) string {
	return ident.Generate(ident.EntityPlacement, league,
		ident.Int("rok", year),
		ident.Int("runda", round),
		ident.Int("index", index),
		ident.Str("race", code),
		ident.Str("klub", normalize.Key(clubAbbr)),
	)
}

// ResultID is the identifier of a club's overall place in a league round.
func ResultID(league string, year, round int, clubAbbr string) string {
	return ident.Generate(ident.EntityResult, league,
		ident.Int("rok", year),
		ident.Int("runda", round),
		ident.Str("klub", normalize.Key(clubAbbr)),
	)
}

// Name is the display name of a league round.
func Name(league string, round int) string {
	return fmt.Sprintf("%s - Runda %d", league, round)
}

var leadingInt = regexp.MustCompile(`\d+`)

// Build is what one results sheet contributes to a run.
type Build struct {
	Regatta      record.Regatta
	Races        []record.Race
	Placements   []record.Placement
	Results      []record.Result
	Observations []club.Observation

	MaxPlace  int
	Malformed []string // raw cells that fell back to MaxPlace
	NoClub    int      // rows with neither abbreviation nor name
}

// FromSheet builds the records of one results sheet. It fails only when
// the club column cannot be located.
func FromSheet(s *source.Sheet, ed source.Edition) (*Build, error) {
	cols, err := source.MatchSheet(s, source.ResultSpecs)
	if err != nil {
		return nil, err
	}

	races := placement.RaceColumns(s.Header)
	var cells []string
	for _, rc := range races {
		cells = append(cells, s.Column(rc.Column)...)
	}

	regattaID := ID(ed.League, ed.Year, ed.Round)
	b := &Build{
		Regatta: record.Regatta{
			ID:     regattaID,
			League: ed.League,
			Year:   ed.Year,
			Round:  ed.Round,
			City:   ed.City,
			Name:   Name(ed.League, ed.Round),
		},
		MaxPlace: placement.MaxPlace(cells),
	}

	raceIDs := make([]string, len(races))
	for i, rc := range races {
		raceIDs[i] = RaceID(ed.League, ed.Year, ed.Round, rc.Index, rc.Code)
		b.Races = append(b.Races, record.Race{
			ID:        raceIDs[i],
			RegattaID: regattaID,
			Index:     rc.Index,
			Code:      rc.Code,
			Final:     rc.Final,
		})
	}

	for _, row := range s.Rows {
		abbr := normalize.Display(s.Cell(row, cols.Index(source.FieldClub)))
		name := normalize.Display(s.Cell(row, cols.Index(source.FieldClubName)))
		if abbr == "" && name == "" {
			b.NoClub++
			continue
		}
		if abbr == "" {
			abbr = club.SynthesizeAbbreviation(name)
		}
		variantID := club.VariantID(abbr, name)
		b.Observations = append(b.Observations, club.Observation{Abbreviation: abbr, Name: name, Source: s.Path})

		for i, rc := range races {
			raw := s.Cell(row, rc.Column)
			p, err := placement.Parse(raw, b.MaxPlace)
			if err != nil {
				b.Malformed = append(b.Malformed, raw)
			}
			b.Placements = append(b.Placements, record.Placement{
				ID:            PlacementID(ed.League, ed.Year, ed.Round, rc.Index, rc.Code, abbr),
				RaceID:        raceIDs[i],
				ClubVariantID: variantID,
				Club:          abbr,
				Place:         p.Value,
				Penalty:       p.PenaltyFlag(),
			})
		}

		if !cols.Has(source.FieldPlace) {
			continue
		}
		m := leadingInt.FindString(s.Cell(row, cols.Index(source.FieldPlace)))
		if m == "" {
			continue
		}
		place, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		b.Results = append(b.Results, record.Result{
			ID:            ResultID(ed.League, ed.Year, ed.Round, abbr),
			RegattaID:     regattaID,
			Club:          abbr,
			ClubVariantID: variantID,
			Place:         place,
		})
	}
	return b, nil
}
