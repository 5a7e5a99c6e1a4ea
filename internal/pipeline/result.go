package pipeline

import "fmt"

// RunResult tracks counts and errors from one pipeline run.
type RunResult struct {
	FilesProcessed int
	FilesSkipped   int
	Regattas       int
	Placements     int
	Results        int
	Participations int
	Unresolved     int
	Duplicates     int
	Migrations     int
	MalformedCells int
	Errors         []string
}

// Add merges another RunResult into this one.
func (r *RunResult) Add(other RunResult) {
	r.FilesProcessed += other.FilesProcessed
	r.FilesSkipped += other.FilesSkipped
	r.Regattas += other.Regattas
	r.Placements += other.Placements
	r.Results += other.Results
	r.Participations += other.Participations
	r.Unresolved += other.Unresolved
	r.Duplicates += other.Duplicates
	r.Migrations += other.Migrations
	r.MalformedCells += other.MalformedCells
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *RunResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *RunResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *RunResult) Summary() string {
	return fmt.Sprintf(
		"files=%d skipped=%d regattas=%d placements=%d results=%d participations=%d unresolved=%d duplicates=%d migrations=%d malformed=%d errors=%d",
		r.FilesProcessed, r.FilesSkipped, r.Regattas, r.Placements, r.Results,
		r.Participations, r.Unresolved, r.Duplicates, r.Migrations, r.MalformedCells,
		len(r.Errors),
	)
}
