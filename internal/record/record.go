// Package record defines the canonical record shapes the pipeline emits.
// These structs are the contract between the core packages and the sinks:
// the pipeline produces them, export writes them as CSV tables, seed writes
// them to Postgres and snapshot fingerprints them.
//
// Field order mirrors the column order of the output tables: identifiers
// first, descriptive fields next, flags last.
package record

// Club is the per-abbreviation summary of all observed variants.
type Club struct {
	Abbreviation string
	Key          string
	Name         string
	GroupID      string
	Occurrences  int
}

// ClubVariant is one canonical (abbreviation, name) pair.
type ClubVariant struct {
	ID           string
	Abbreviation string
	Key          string
	Name         string
	GroupID      string
	Occurrences  int
}

// ClubConflict is one candidate name of an abbreviation with several names.
type ClubConflict struct {
	Key            string
	Abbreviation   string
	Name           string
	Count          int
	Representative bool
}

// Competitor sources.
const (
	CompetitorFromRoster    = "roster"
	CompetitorFromDirectory = "directory"
	CompetitorDerived       = "derived"
)

// Competitor is a person that raced for a club.
type Competitor struct {
	ID             string
	FullName       string
	NormalizedName string
	Source         string
}

// Regatta is one league round. City is descriptive and not part of the ID.
type Regatta struct {
	ID     string
	League string
	Year   int
	Round  int
	City   string
	Name   string
}

// Race is one scored race of a regatta. The final has index 0.
type Race struct {
	ID        string
	RegattaID string
	Index     int
	Code      string
	Final     bool
}

// Placement is a club's finish in one race.
type Placement struct {
	ID            string
	RaceID        string
	ClubVariantID string
	Club          string
	Place         float64
	Penalty       int
	BoatNumber    int
}

// Result is a club's overall place in a regatta.
type Result struct {
	ID            string
	RegattaID     string
	Club          string
	ClubVariantID string
	Place         int
}

// Participation records that a competitor raced for a club at a regatta
// with a verified result. Training is reserved and never set here.
type Participation struct {
	ID            string
	CompetitorID  string
	RegattaID     string
	Club          string
	ClubVariantID string
	Training      bool

	// Quality-control context, written to the participations_qc table only.
	Place      int
	League     string
	Year       int
	Round      int
	Regatta    string
	Competitor string
}

// Unresolved is a roster row, or one round of it, that could not be joined.
type Unresolved struct {
	Source     string
	Line       int
	Competitor string
	Club       string
	League     string
	Year       int
	Round      int
	Reason     string
	Detail     string
}

// DuplicateID reports one identifier emitted more than once.
type DuplicateID struct {
	Table  string
	ID     string
	Count  int
	Detail string
}

// IDMigration maps a legacy competitor ID to its canonical replacement.
type IDMigration struct {
	OldID    string
	NewID    string
	FullName string
	Scheme   string
}

// FileError is a source file skipped during a run.
type FileError struct {
	File   string
	Reason string
}

// Set is the full output of a run.
type Set struct {
	Clubs          []Club
	ClubVariants   []ClubVariant
	ClubConflicts  []ClubConflict
	Competitors    []Competitor
	Regattas       []Regatta
	Races          []Race
	Placements     []Placement
	Results        []Result
	Participations []Participation
	Unresolved     []Unresolved
	Duplicates     []DuplicateID
	Migrations     []IDMigration
	FileErrors     []FileError
}
