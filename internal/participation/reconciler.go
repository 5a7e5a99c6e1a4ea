// Package participation joins competitor rosters with regatta results.
//
// A participation is emitted only for a (competitor, regatta, club) whose
// club has a recorded result in that regatta. Every roster row or round that
// cannot be joined is returned as an unresolved record with a reason; nothing
// is dropped silently and no ID is made up for a failed match.
package participation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/ident"
	"github.com/albapepper/regatta-data/internal/normalize"
	"github.com/albapepper/regatta-data/internal/record"
	"github.com/albapepper/regatta-data/internal/regatta"
	"github.com/albapepper/regatta-data/internal/roster"
)

// Reason classifies an unresolved row.
type Reason string

const (
	ReasonMissingCompetitor Reason = "missing_competitor"
	ReasonUnknownCompetitor Reason = "unknown_competitor"
	ReasonLegacyID          Reason = "legacy_id"
	ReasonMissingClub       Reason = "missing_club"
	ReasonUnknownClub       Reason = "unknown_club"
	ReasonMissingEdition    Reason = "missing_edition"
	ReasonUnknownRegatta    Reason = "unknown_regatta"
	ReasonNoResult          Reason = "no_result"
)

// Candidate is one roster row as supplied by a loader.
type Candidate struct {
	Source       string
	Line         int
	CompetitorID string
	FullName     string
	Club         string
	League       string
	Year         int
	Rounds       []int  // empty: try every round
	Regatta      string // free-text description, informational
}

// ClubLookup resolves an abbreviation to its representative variant ID.
type ClubLookup interface {
	VariantID(abbreviation string) (string, bool)
}

// CompetitorResolver assigns competitor IDs.
type CompetitorResolver interface {
	Resolve(explicitID, fullName, club string) (roster.Resolution, error)
}

// Outcome is the result of one reconciliation.
type Outcome struct {
	Participations []record.Participation
	Competitors    []record.Competitor
	Unresolved     []record.Unresolved
	Duplicates     []record.DuplicateID
	Migrations     []record.IDMigration
}

type resultKey struct {
	regattaID string
	clubKey   string
}

// Reconciler holds the known regattas and results. It is immutable after
// New and can reconcile any number of rosters.
type Reconciler struct {
	regattas    map[string]record.Regatta
	results     map[resultKey]record.Result
	clubs       ClubLookup
	competitors CompetitorResolver
	maxRound    int
}

// New indexes the known regattas and results. clubs may be nil, in which
// case club references are not checked against variants.
func New(regattas []record.Regatta, results []record.Result, clubs ClubLookup, competitors CompetitorResolver, maxRound int) *Reconciler {
	r := &Reconciler{
		regattas:    make(map[string]record.Regatta, len(regattas)),
		results:     make(map[resultKey]record.Result, len(results)),
		clubs:       clubs,
		competitors: competitors,
		maxRound:    maxRound,
	}
	for _, g := range regattas {
		r.regattas[g.ID] = g
	}
	for _, res := range results {
		r.results[resultKey{res.RegattaID, normalize.Key(res.Club)}] = res
	}
	return r
}

// RegattaID is the identifier of a league round.
func RegattaID(league string, year, round int) string {
	return regatta.ID(league, year, round)
}

// ParticipationID is the identifier of a competitor's participation in a
// league round for a club. club is key-normalised before hashing.
func ParticipationID(league string, year, round int, competitorID, club string) string {
	return ident.Generate(ident.EntityParticipation, league,
		ident.Int("rok", year),
		ident.Int("runda", round),
		ident.Str("zawodnik", competitorID),
		ident.Str("klub", normalize.Key(club)),
	)
}

// Reconcile joins every candidate. Participations sharing an ID are emitted
// once; the repeats are reported as duplicates.
func (r *Reconciler) Reconcile(candidates []Candidate) Outcome {
	var out Outcome
	seen := make(map[string]int)
	competitors := make(map[string]record.Competitor)
	migrated := make(map[[2]string]bool)

	for _, c := range candidates {
		res, err := r.competitors.Resolve(c.CompetitorID, c.FullName, c.Club)
		if err != nil {
			out.Unresolved = append(out.Unresolved, unresolved(c, 0, competitorReason(err), err.Error()))
			continue
		}
		club := normalize.Display(c.Club)
		if club == "" {
			out.Unresolved = append(out.Unresolved, unresolved(c, 0, ReasonMissingClub, ""))
			continue
		}
		variantID := ""
		if r.clubs != nil {
			id, ok := r.clubs.VariantID(club)
			if !ok {
				out.Unresolved = append(out.Unresolved, unresolved(c, 0, ReasonUnknownClub,
					fmt.Sprintf("no club variant for %q", club)))
				continue
			}
			variantID = id
		}
		if c.League == "" || c.Year == 0 {
			out.Unresolved = append(out.Unresolved, unresolved(c, 0, ReasonMissingEdition, "league or year unknown"))
			continue
		}
		// Migrations are recorded once per (old, new) pair, and only for
		// rows that get past the club and edition checks.
		if m := res.Migration; m != nil && !migrated[[2]string{m.OldID, m.NewID}] {
			migrated[[2]string{m.OldID, m.NewID}] = true
			out.Migrations = append(out.Migrations, *m)
		}

		emitted := r.rounds(c, club, variantID, res.Competitor, &out, seen)
		if emitted > 0 {
			competitors[res.Competitor.ID] = res.Competitor
		}
	}

	for id, n := range seen {
		if n > 1 {
			out.Duplicates = append(out.Duplicates, record.DuplicateID{
				Table:  config.ParticipationsTable,
				ID:     id,
				Count:  n,
				Detail: "identical participation listed more than once",
			})
		}
	}
	sort.Slice(out.Duplicates, func(i, j int) bool { return out.Duplicates[i].ID < out.Duplicates[j].ID })

	for _, comp := range competitors {
		out.Competitors = append(out.Competitors, comp)
	}
	sort.Slice(out.Competitors, func(i, j int) bool { return out.Competitors[i].ID < out.Competitors[j].ID })

	return out
}

// rounds emits the participations of one candidate and returns how many
// were new.
func (r *Reconciler) rounds(c Candidate, club, variantID string, comp record.Competitor, out *Outcome, seen map[string]int) int {
	explicit := len(c.Rounds) > 0
	rounds := c.Rounds
	if !explicit {
		rounds = make([]int, r.maxRound)
		for i := range rounds {
			rounds[i] = i + 1
		}
	}

	emitted, regattasFound := 0, 0
	for _, round := range rounds {
		regattaID := RegattaID(c.League, c.Year, round)
		reg, ok := r.regattas[regattaID]
		if !ok {
			if explicit {
				out.Unresolved = append(out.Unresolved, unresolved(c, round, ReasonUnknownRegatta,
					fmt.Sprintf("no regatta %s for %s %d round %d", regattaID, c.League, c.Year, round)))
			}
			continue
		}
		regattasFound++

		result, ok := r.results[resultKey{regattaID, normalize.Key(club)}]
		if !ok {
			if explicit {
				out.Unresolved = append(out.Unresolved, unresolved(c, round, ReasonNoResult,
					fmt.Sprintf("club %s has no result in regatta %s", club, regattaID)))
			}
			continue
		}

		id := ParticipationID(c.League, c.Year, round, comp.ID, club)
		seen[id]++
		if seen[id] > 1 {
			continue
		}
		vid := result.ClubVariantID
		if vid == "" {
			vid = variantID
		}
		desc := c.Regatta
		if desc != "" {
			desc = normalize.RegattaForLeague(desc, c.League)
		} else {
			desc = reg.City
		}
		out.Participations = append(out.Participations, record.Participation{
			ID:            id,
			CompetitorID:  comp.ID,
			RegattaID:     regattaID,
			Club:          club,
			ClubVariantID: vid,
			Place:         result.Place,
			League:        c.League,
			Year:          c.Year,
			Round:         round,
			Regatta:       desc,
			Competitor:    comp.FullName,
		})
		emitted++
	}

	if !explicit && emitted == 0 && !anySeen(c, comp, club, rounds, seen) {
		if regattasFound == 0 {
			out.Unresolved = append(out.Unresolved, unresolved(c, 0, ReasonUnknownRegatta,
				fmt.Sprintf("no regatta known for %s %d", c.League, c.Year)))
		} else {
			out.Unresolved = append(out.Unresolved, unresolved(c, 0, ReasonNoResult,
				fmt.Sprintf("no round of %s %d has a result for club %s", c.League, c.Year, club)))
		}
	}
	return emitted
}

// anySeen reports whether some round of an implicit candidate matched but
// was a duplicate of an earlier row.
func anySeen(c Candidate, comp record.Competitor, club string, rounds []int, seen map[string]int) bool {
	for _, round := range rounds {
		if seen[ParticipationID(c.League, c.Year, round, comp.ID, club)] > 0 {
			return true
		}
	}
	return false
}

func competitorReason(err error) Reason {
	switch {
	case errors.Is(err, roster.ErrNotInDirectory):
		return ReasonUnknownCompetitor
	case errors.Is(err, roster.ErrLegacyID):
		return ReasonLegacyID
	default:
		return ReasonMissingCompetitor
	}
}

func unresolved(c Candidate, round int, reason Reason, detail string) record.Unresolved {
	return record.Unresolved{
		Source:     c.Source,
		Line:       c.Line,
		Competitor: normalize.Display(c.FullName),
		Club:       normalize.Display(c.Club),
		League:     c.League,
		Year:       c.Year,
		Round:      round,
		Reason:     string(reason),
		Detail:     detail,
	}
}
