// Package seed loads a run's record set into Postgres with idempotent upserts.
package seed

import "fmt"

// SeedResult tracks counts and errors from a seeding operation.
type SeedResult struct {
	ClubsUpserted          int
	VariantsUpserted       int
	CompetitorsUpserted    int
	RegattasUpserted       int
	RacesUpserted          int
	PlacementsUpserted     int
	ResultsUpserted        int
	ParticipationsUpserted int
	Errors                 []string
}

// Add merges another SeedResult into this one.
func (r *SeedResult) Add(other SeedResult) {
	r.ClubsUpserted += other.ClubsUpserted
	r.VariantsUpserted += other.VariantsUpserted
	r.CompetitorsUpserted += other.CompetitorsUpserted
	r.RegattasUpserted += other.RegattasUpserted
	r.RacesUpserted += other.RacesUpserted
	r.PlacementsUpserted += other.PlacementsUpserted
	r.ResultsUpserted += other.ResultsUpserted
	r.ParticipationsUpserted += other.ParticipationsUpserted
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *SeedResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *SeedResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the seed operation.
func (r *SeedResult) Summary() string {
	return fmt.Sprintf(
		"clubs=%d variants=%d competitors=%d regattas=%d races=%d placements=%d results=%d participations=%d errors=%d",
		r.ClubsUpserted, r.VariantsUpserted, r.CompetitorsUpserted,
		r.RegattasUpserted, r.RacesUpserted, r.PlacementsUpserted,
		r.ResultsUpserted, r.ParticipationsUpserted,
		len(r.Errors),
	)
}
