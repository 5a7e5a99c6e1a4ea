// Package pipeline wires the loaders and the core packages into a run:
// scan the results tree, resolve clubs, load rosters and reconcile
// participations. Every source file is processed independently; a file
// that fails is reported and the run carries on with the rest.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/albapepper/regatta-data/internal/club"
	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/participation"
	"github.com/albapepper/regatta-data/internal/record"
	"github.com/albapepper/regatta-data/internal/roster"
	"github.com/albapepper/regatta-data/internal/source"
)

// Options select the inputs of a run.
type Options struct {
	ResultsDir     string
	RosterPaths    []string
	DirectoryPaths []string
	ClubGroupsPath string
	MaxRound       int
	StrictRoster   bool
	Defaults       Defaults
	Workers        int
}

// OptionsFromConfig copies the run inputs out of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ResultsDir:     cfg.ResultsDir,
		RosterPaths:    cfg.RosterPaths,
		DirectoryPaths: cfg.DirectoryPaths,
		ClubGroupsPath: cfg.ClubGroupsPath,
		MaxRound:       cfg.MaxRound,
		StrictRoster:   cfg.StrictRoster,
		Defaults:       Defaults{League: cfg.DefaultLeague, Year: cfg.DefaultYear, MaxRound: cfg.MaxRound},
		Workers:        cfg.Workers,
	}
}

// Run executes the full pipeline and returns the record set.
func Run(ctx context.Context, opts Options, logger *slog.Logger) (*record.Set, RunResult, error) {
	start := time.Now()

	set, rr, clubs, err := scan(ctx, opts, logger)
	if err != nil {
		return nil, rr, err
	}
	if err := reconcile(ctx, set, clubs, opts, logger, &rr); err != nil {
		return nil, rr, err
	}

	logger.Info("Pipeline finished",
		"participations", rr.Participations,
		"unresolved", rr.Unresolved,
		"duration", time.Since(start).Round(time.Millisecond))
	return set, rr, nil
}

// Scan runs the results half of the pipeline: club resolution, regattas,
// races, placements and results. Participation tables stay empty.
func Scan(ctx context.Context, opts Options, logger *slog.Logger) (*record.Set, RunResult, error) {
	set, rr, _, err := scan(ctx, opts, logger)
	return set, rr, err
}

func scan(ctx context.Context, opts Options, logger *slog.Logger) (*record.Set, RunResult, *club.Resolution, error) {
	cfg, err := club.LoadGroupConfig(opts.ClubGroupsPath)
	if err != nil {
		return nil, RunResult{}, nil, err
	}
	groups := club.NewGroups(cfg)
	logger.Debug("Club groups loaded", "path", opts.ClubGroupsPath, "groups", groups.Len())

	res, rr, err := ScanResults(ctx, opts.ResultsDir, groups, opts.Workers, logger)
	if err != nil {
		return nil, rr, nil, fmt.Errorf("scan results: %w", err)
	}

	set := &record.Set{
		Regattas:   res.Regattas,
		Races:      res.Races,
		Placements: res.Placements,
		Results:    res.Results,
		FileErrors: res.FileErrors,
		Duplicates: res.Duplicates,
	}
	addClubs(set, res.Clubs)
	return set, rr, res.Clubs, nil
}

// Reconcile joins the rosters against a record set read back from an
// earlier run's output, adding participations and their diagnostics to it.
func Reconcile(ctx context.Context, set *record.Set, opts Options, logger *slog.Logger) (RunResult, error) {
	var rr RunResult
	clubs := NewVariantIndex(set.Clubs, set.ClubVariants)
	err := reconcile(ctx, set, clubs, opts, logger, &rr)
	logger.Info("Reconciliation finished",
		"participations", rr.Participations,
		"unresolved", rr.Unresolved)
	return rr, err
}

func reconcile(ctx context.Context, set *record.Set, clubs participation.ClubLookup, opts Options, logger *slog.Logger, rr *RunResult) error {
	dir, dirErrs := LoadDirectory(opts.DirectoryPaths, logger)
	set.FileErrors = append(set.FileErrors, dirErrs...)
	rr.FilesSkipped += len(dirErrs)
	for _, c := range dir.Conflicts() {
		set.Duplicates = append(set.Duplicates, record.DuplicateID{
			Table:  "directory",
			ID:     strings.Join(c.IDs, ","),
			Count:  len(c.IDs),
			Detail: fmt.Sprintf("name %q has several IDs; %s is used", c.Name, c.IDs[0]),
		})
	}

	def := opts.Defaults
	if def.MaxRound == 0 {
		def.MaxRound = opts.MaxRound
	}
	var candidates []participation.Candidate
	for _, path := range opts.RosterPaths {
		if err := ctx.Err(); err != nil {
			return err
		}
		cs, err := loadCandidates(path, def)
		if err != nil {
			logger.Warn("Skipping roster file", "file", path, "error", err)
			set.FileErrors = append(set.FileErrors, record.FileError{File: path, Reason: err.Error()})
			rr.FilesSkipped++
			continue
		}
		candidates = append(candidates, cs...)
		rr.FilesProcessed++
	}
	logger.Debug("Roster candidates loaded", "rows", len(candidates))

	rec := participation.New(set.Regattas, set.Results, clubs, roster.NewResolver(dir, opts.StrictRoster), opts.MaxRound)
	out := rec.Reconcile(candidates)

	set.Participations = out.Participations
	set.Competitors = out.Competitors
	set.Unresolved = out.Unresolved
	set.Migrations = out.Migrations
	set.Duplicates = append(set.Duplicates, out.Duplicates...)

	rr.Participations = len(set.Participations)
	rr.Unresolved = len(set.Unresolved)
	rr.Migrations = len(set.Migrations)
	rr.Duplicates = len(set.Duplicates)
	for _, fe := range set.FileErrors {
		rr.AddErrorf("%s: %s", fe.File, fe.Reason)
	}
	return nil
}

// LoadDirectory builds the authoritative name-to-ID directory. Files that
// fail are returned as file errors.
func LoadDirectory(paths []string, logger *slog.Logger) (*roster.Directory, []record.FileError) {
	dir := roster.NewDirectory()
	var errs []record.FileError
	for _, path := range paths {
		s, err := source.Load(path)
		if err == nil {
			err = addDirectory(dir, s)
		}
		if err != nil {
			logger.Warn("Skipping directory file", "file", path, "error", err)
			errs = append(errs, record.FileError{File: path, Reason: err.Error()})
		}
	}
	if len(paths) > 0 {
		logger.Info("Competitor directory loaded", "files", len(paths)-len(errs), "names", dir.Len())
	}
	return dir, errs
}

func addDirectory(dir *roster.Directory, s *source.Sheet) error {
	cols, err := source.MatchSheet(s, source.DirectorySpecs)
	if err != nil {
		return err
	}
	if !cols.Has(source.FieldCompetitor) && !(cols.Has(source.FieldFirstName) && cols.Has(source.FieldLastName)) {
		return &source.MissingColumnError{File: s.Path, Field: source.FieldCompetitor, Accepted: nameAliases()}
	}
	for _, row := range s.Rows {
		name := s.Cell(row, cols.Index(source.FieldCompetitor))
		if name == "" {
			name = s.Cell(row, cols.Index(source.FieldFirstName)) + " " + s.Cell(row, cols.Index(source.FieldLastName))
		}
		dir.Add(name, s.Cell(row, cols.Index(source.FieldCompetitorID)))
	}
	return nil
}

func loadCandidates(path string, def Defaults) ([]participation.Candidate, error) {
	s, err := source.Load(path)
	if err != nil {
		return nil, err
	}
	return Candidates(s, def)
}

func addClubs(set *record.Set, res *club.Resolution) {
	for _, c := range res.Clubs {
		set.Clubs = append(set.Clubs, record.Club(c))
	}
	for _, v := range res.Variants {
		set.ClubVariants = append(set.ClubVariants, record.ClubVariant(v))
	}
	for _, c := range res.Conflicts {
		set.ClubConflicts = append(set.ClubConflicts, record.ClubConflict(c))
	}
}
