package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/regatta-data/internal/club"
	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/record"
	"github.com/albapepper/regatta-data/internal/regatta"
	"github.com/albapepper/regatta-data/internal/source"
)

// Results is everything read from the results tree.
type Results struct {
	Clubs      *club.Resolution
	Regattas   []record.Regatta
	Races      []record.Race
	Placements []record.Placement
	Results    []record.Result
	FileErrors []record.FileError
	Duplicates []record.DuplicateID
}

// ScanResults builds every sheet under dir. A sheet that cannot be loaded
// or lacks its club column is recorded as a file error and skipped; the
// scan itself only fails when dir cannot be read or ctx is cancelled.
// Files are loaded by up to workers goroutines; they are folded into the
// club resolver in discovery order, so output does not depend on workers.
func ScanResults(ctx context.Context, dir string, groups *club.Groups, workers int, logger *slog.Logger) (*Results, RunResult, error) {
	var rr RunResult
	start := time.Now()

	files, skipped, err := source.Discover(dir)
	if err != nil {
		return nil, rr, err
	}

	out := &Results{}
	for _, s := range skipped {
		logger.Warn("Skipping results entry", "file", s.Path, "reason", s.Reason)
		out.FileErrors = append(out.FileErrors, record.FileError{File: s.Path, Reason: s.Reason})
		rr.FilesSkipped++
	}

	builds := buildAll(ctx, files, workers)
	if err := ctx.Err(); err != nil {
		return nil, rr, err
	}

	resolver := club.NewResolver(groups)
	for i, f := range files {
		b, err := builds[i].build, builds[i].err
		if err != nil {
			logger.Warn("Skipping results file", "file", f.Path, "error", err)
			out.FileErrors = append(out.FileErrors, record.FileError{File: f.Path, Reason: err.Error()})
			rr.FilesSkipped++
			continue
		}
		if len(b.Malformed) > 0 {
			logger.Debug("Malformed place cells", "file", f.Path, "cells", b.Malformed, "fallback", b.MaxPlace)
		}

		for _, obs := range b.Observations {
			resolver.Observe(obs)
		}
		out.Regattas = append(out.Regattas, b.Regatta)
		out.Races = append(out.Races, b.Races...)
		out.Placements = append(out.Placements, b.Placements...)
		out.Results = append(out.Results, b.Results...)
		rr.FilesProcessed++
		rr.MalformedCells += len(b.Malformed)
	}

	out.Clubs = resolver.Resolve()

	var dups []record.DuplicateID
	out.Regattas, dups = dedupe(config.RegattasTable, out.Regattas,
		func(r record.Regatta) string { return r.ID },
		func(a, b record.Regatta) bool { return a.League == b.League && a.Year == b.Year && a.Round == b.Round })
	out.Duplicates = append(out.Duplicates, dups...)
	out.Races, dups = dedupe(config.RacesTable, out.Races,
		func(r record.Race) string { return r.ID },
		func(a, b record.Race) bool { return a == b })
	out.Duplicates = append(out.Duplicates, dups...)
	out.Placements, dups = dedupe(config.PlacementsTable, out.Placements,
		func(p record.Placement) string { return p.ID },
		func(a, b record.Placement) bool { return a == b })
	out.Duplicates = append(out.Duplicates, dups...)
	out.Results, dups = dedupe(config.ResultsTable, out.Results,
		func(r record.Result) string { return r.ID },
		func(a, b record.Result) bool { return a == b })
	out.Duplicates = append(out.Duplicates, dups...)

	rr.Regattas = len(out.Regattas)
	rr.Placements = len(out.Placements)
	rr.Results = len(out.Results)
	rr.Duplicates = len(out.Duplicates)

	logger.Info("Results scan finished",
		"files", rr.FilesProcessed, "skipped", rr.FilesSkipped,
		"regattas", rr.Regattas, "clubs", len(out.Clubs.Clubs),
		"duration", time.Since(start).Round(time.Millisecond))
	return out, rr, nil
}

func buildFile(f source.ResultFile) (*regatta.Build, error) {
	s, err := source.Load(f.Path)
	if err != nil {
		return nil, err
	}
	b, err := regatta.FromSheet(s, f.Edition)
	if err != nil {
		var mc *source.MissingColumnError
		if errors.As(err, &mc) {
			return nil, err
		}
		return nil, fmt.Errorf("build %s: %w", f.Path, err)
	}
	return b, nil
}

// dedupe keeps the first item of every ID. Repeats equal to the first are
// dropped silently; an ID whose items differ is reported.
func dedupe[T any](table string, items []T, id func(T) string, same func(a, b T) bool) ([]T, []record.DuplicateID) {
	first := make(map[string]int, len(items))
	counts := make(map[string]int, len(items))
	conflicting := make(map[string]bool)
	out := items[:0:0]
	var order []string
	for _, it := range items {
		k := id(it)
		counts[k]++
		i, ok := first[k]
		if !ok {
			first[k] = len(out)
			out = append(out, it)
			continue
		}
		if !same(out[i], it) && !conflicting[k] {
			conflicting[k] = true
			order = append(order, k)
		}
	}

	var dups []record.DuplicateID
	for _, k := range order {
		dups = append(dups, record.DuplicateID{
			Table:  table,
			ID:     k,
			Count:  counts[k],
			Detail: "same ID emitted with different content",
		})
	}
	return out, dups
}
