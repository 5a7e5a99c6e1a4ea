// Command ingest is the regatta results ETL CLI.
//
// Usage:
//
//	regatta-ingest run --results ./mnt/data/Regaty --roster zawodnicy.csv --snapshot
//	regatta-ingest clubs --results ./mnt/data/Regaty
//	regatta-ingest results --results ./mnt/data/Regaty
//	regatta-ingest participations --from ./mnt/data/output --roster zawodnicy.csv
//	regatta-ingest migrate-ids zawodnicy_2023.csv zawodnicy_2024.csv
//	regatta-ingest merge ./out/2023 ./out/2024 --output ./out/all
//	regatta-ingest seed --from ./mnt/data/output
//	regatta-ingest verify
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/db"
	"github.com/albapepper/regatta-data/internal/export"
	"github.com/albapepper/regatta-data/internal/maintenance"
	"github.com/albapepper/regatta-data/internal/pipeline"
	"github.com/albapepper/regatta-data/internal/record"
	"github.com/albapepper/regatta-data/internal/seed"
	"github.com/albapepper/regatta-data/internal/snapshot"
	"github.com/albapepper/regatta-data/internal/source"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "regatta-ingest",
		Short:        "Regatta results ETL",
		SilenceUsage: true,
	}

	root.AddCommand(runCmd())
	root.AddCommand(clubsCmd())
	root.AddCommand(resultsCmd())
	root.AddCommand(participationsCmd())
	root.AddCommand(migrateIDsCmd())
	root.AddCommand(mergeCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(verifyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// Shared flags
// --------------------------------------------------------------------------

// sourceFlags override the environment configuration for one invocation.
type sourceFlags struct {
	results     string
	rosters     []string
	directories []string
	groups      string
	output      string
	maxRound    int
	strict      bool
	league      string
	year        int
	workers     int
}

func (f *sourceFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.results, "results", "", "Results tree root (year/league/round/file)")
	fs.StringSliceVar(&f.rosters, "roster", nil, "Roster files, repeatable")
	fs.StringSliceVar(&f.directories, "directory", nil, "Competitor directory files, repeatable")
	fs.StringVar(&f.groups, "groups", "", "Club groups YAML file")
	fs.StringVar(&f.output, "output", "", "Output directory")
	fs.IntVar(&f.maxRound, "max-round", config.DefaultMaxRound, "Last round tried for roster rows without rounds")
	fs.BoolVar(&f.strict, "strict", false, "Report roster names missing from the directory instead of deriving IDs")
	fs.StringVar(&f.league, "league", "", "League used when neither the roster nor its path names one")
	fs.IntVar(&f.year, "year", 0, "Year used when neither the roster nor its path names one")
	fs.IntVar(&f.workers, "workers", config.DefaultWorkers, "Result files loaded concurrently")
}

// apply copies every flag the user set into cfg.
func (f *sourceFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("results") {
		cfg.ResultsDir = f.results
	}
	if fs.Changed("roster") {
		cfg.RosterPaths = f.rosters
	}
	if fs.Changed("directory") {
		cfg.DirectoryPaths = f.directories
	}
	if fs.Changed("groups") {
		cfg.ClubGroupsPath = f.groups
	}
	if fs.Changed("output") {
		cfg.OutputDir = f.output
	}
	if fs.Changed("max-round") {
		cfg.MaxRound = f.maxRound
	}
	if fs.Changed("strict") {
		cfg.StrictRoster = f.strict
	}
	if fs.Changed("league") {
		cfg.DefaultLeague = f.league
	}
	if fs.Changed("year") {
		cfg.DefaultYear = f.year
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
}

// --------------------------------------------------------------------------
// run command
// --------------------------------------------------------------------------

func runCmd() *cobra.Command {
	var flags sourceFlags
	var keepSnapshot bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan results, reconcile rosters and write every output table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(func(ctx context.Context, cfg *config.Config) error {
				flags.apply(cmd, cfg)
				start := time.Now()

				set, rr, err := pipeline.Run(ctx, pipeline.OptionsFromConfig(cfg), logger)
				if err != nil {
					return err
				}
				tables := set.Tables()
				if err := export.WriteDir(cfg.OutputDir, tables); err != nil {
					return err
				}

				if keepSnapshot {
					runID, err := saveSnapshot(ctx, cfg.SnapshotPath, tables, rr.Summary())
					if err != nil {
						return err
					}
					logger.Info("Snapshot saved", "run_id", runID, "path", cfg.SnapshotPath)
				}

				logger.Info("Run finished", "output", cfg.OutputDir, "duration", time.Since(start).Round(time.Millisecond), "summary", rr.Summary())
				logErrors(rr.Errors)
				return nil
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().BoolVar(&keepSnapshot, "snapshot", false, "Record a fingerprint of this run for verify")
	return cmd
}

// --------------------------------------------------------------------------
// clubs / results commands
// --------------------------------------------------------------------------

func clubsCmd() *cobra.Command {
	var flags sourceFlags
	cmd := &cobra.Command{
		Use:   "clubs",
		Short: "Resolve club variants from the results tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(func(ctx context.Context, cfg *config.Config) error {
				flags.apply(cmd, cfg)
				start := time.Now()

				set, rr, err := pipeline.Scan(ctx, pipeline.OptionsFromConfig(cfg), logger)
				if err != nil {
					return err
				}
				tables := pick(set.Tables(), config.ClubsTable, config.ClubVariantsTable, config.ClubConflictsTable, config.FileErrorsTable)
				if err := export.WriteDir(cfg.OutputDir, tables); err != nil {
					return err
				}
				logger.Info("Clubs finished",
					"clubs", len(set.Clubs),
					"variants", len(set.ClubVariants),
					"conflicts", len(set.ClubConflicts),
					"duration", time.Since(start).Round(time.Millisecond))
				logErrors(rr.Errors)
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func resultsCmd() *cobra.Command {
	var flags sourceFlags
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Build regattas, races, placements and results from the results tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(func(ctx context.Context, cfg *config.Config) error {
				flags.apply(cmd, cfg)
				start := time.Now()

				set, rr, err := pipeline.Scan(ctx, pipeline.OptionsFromConfig(cfg), logger)
				if err != nil {
					return err
				}
				tables := pick(set.Tables(),
					config.ClubsTable, config.ClubVariantsTable, config.ClubConflictsTable,
					config.RegattasTable, config.RacesTable, config.PlacementsTable, config.ResultsTable,
					config.DuplicateIDsTable, config.FileErrorsTable)
				if err := export.WriteDir(cfg.OutputDir, tables); err != nil {
					return err
				}
				logger.Info("Results finished", "duration", time.Since(start).Round(time.Millisecond), "summary", rr.Summary())
				logErrors(rr.Errors)
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

// --------------------------------------------------------------------------
// participations command
// --------------------------------------------------------------------------

func participationsCmd() *cobra.Command {
	var flags sourceFlags
	var from string
	cmd := &cobra.Command{
		Use:   "participations",
		Short: "Reconcile rosters against the results of an earlier run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(func(ctx context.Context, cfg *config.Config) error {
				flags.apply(cmd, cfg)
				if from == "" {
					from = cfg.OutputDir
				}
				start := time.Now()

				tables, err := export.ReadDir(from)
				if err != nil {
					return err
				}
				loaded, err := record.FromTables(tables)
				if err != nil {
					return err
				}
				// Diagnostics of the results scan are carried over; the
				// reconciliation appends its own.
				set := &record.Set{
					Clubs:        loaded.Clubs,
					ClubVariants: loaded.ClubVariants,
					Regattas:     loaded.Regattas,
					Results:      loaded.Results,
					Duplicates:   loaded.Duplicates,
					FileErrors:   loaded.FileErrors,
				}

				rr, err := pipeline.Reconcile(ctx, set, pipeline.OptionsFromConfig(cfg), logger)
				if err != nil {
					return err
				}
				out := pick(set.Tables(),
					config.CompetitorsTable, config.ParticipationsTable, config.ParticipationsQCTable,
					config.UnresolvedTable, config.IDMigrationsTable, config.DuplicateIDsTable, config.FileErrorsTable)
				if err := export.WriteDir(cfg.OutputDir, out); err != nil {
					return err
				}

				logger.Info("Participations finished", "from", from, "duration", time.Since(start).Round(time.Millisecond), "summary", rr.Summary())
				logErrors(rr.Errors)
				return nil
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&from, "from", "", "Output directory of an earlier results run (default: the output directory)")
	return cmd
}

// --------------------------------------------------------------------------
// migrate-ids command
// --------------------------------------------------------------------------

func migrateIDsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "migrate-ids [roster files...]",
		Short: "Map legacy competitor IDs to name-derived IDs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(func(ctx context.Context, cfg *config.Config) error {
				if output != "" {
					cfg.OutputDir = output
				}
				sheets := make([]*source.Sheet, 0, len(args))
				for _, path := range args {
					s, err := source.Load(path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					sheets = append(sheets, s)
				}

				m, err := pipeline.MigrateIDs(sheets)
				if err != nil {
					return err
				}
				set := &record.Set{Migrations: m.Migrations, Duplicates: m.Collisions}
				tables := pick(set.Tables(), config.IDMigrationsTable, config.DuplicateIDsTable)
				if err := export.WriteDir(cfg.OutputDir, tables); err != nil {
					return err
				}

				logger.Info("ID migration finished",
					"migrations", len(m.Migrations),
					"collisions", len(m.Collisions),
					"canonical", m.Canonical,
					"skipped", m.Skipped)
				for _, c := range m.Collisions {
					logger.Warn("ID collision", "id", c.ID, "detail", c.Detail)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Output directory")
	return cmd
}

// --------------------------------------------------------------------------
// merge command
// --------------------------------------------------------------------------

func mergeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "merge [output dirs...]",
		Short: "Merge the outputs of several runs into one table set",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			if slices.Contains(args, output) {
				return fmt.Errorf("--output must differ from the merged directories")
			}
			start := time.Now()

			tables, report, err := export.Merge(args)
			if err != nil {
				return err
			}
			if err := export.WriteDir(output, tables); err != nil {
				return err
			}

			logger.Info("Merge finished",
				"dirs", report.Dirs,
				"rows", report.Rows,
				"dropped", report.DroppedRows,
				"duplicates", len(report.Duplicates),
				"duration", time.Since(start).Round(time.Millisecond))
			for _, d := range report.Duplicates {
				logger.Warn("Conflicting ID across runs", "table", d.Table, "id", d.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Directory the merged tables are written to")
	return cmd
}

// --------------------------------------------------------------------------
// seed command
// --------------------------------------------------------------------------

func seedCmd() *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load an output directory into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				if from == "" {
					from = cfg.OutputDir
				}
				tables, err := export.ReadDir(from)
				if err != nil {
					return err
				}
				set, err := record.FromTables(tables)
				if err != nil {
					return err
				}

				if version, err := pool.ServerVersion(ctx); err == nil {
					logger.Info("Connected to Postgres", "server_version", version)
				}
				if err := seed.EnsureSchema(ctx, pool.Pool); err != nil {
					return err
				}
				start := time.Now()
				result := seed.SeedSet(ctx, pool.Pool, set, logger)
				logger.Info("Seed finished", "duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				if len(result.Errors) > 0 {
					for _, e := range result.Errors {
						logger.Error("seed error", "error", e)
					}
				}

				if err := maintenance.AnalyzeTables(ctx, pool.Pool, seed.Tables, logger); err != nil {
					logger.Warn("Analyze failed", "error", err)
				}
				for _, table := range seed.Tables {
					n, err := pool.CountRows(ctx, table)
					if err != nil {
						logger.Warn("Row count failed", "table", table, "error", err)
						continue
					}
					logger.Info("Table rows", "table", table, "rows", n)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Output directory to load (default: the output directory)")
	return cmd
}

// --------------------------------------------------------------------------
// verify command
// --------------------------------------------------------------------------

func verifyCmd() *cobra.Command {
	var flags sourceFlags
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-run the pipeline and compare its IDs with the last snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(func(ctx context.Context, cfg *config.Config) error {
				flags.apply(cmd, cfg)

				set, _, err := pipeline.Run(ctx, pipeline.OptionsFromConfig(cfg), logger)
				if err != nil {
					return err
				}

				store, err := snapshot.Open(cfg.SnapshotPath)
				if err != nil {
					return err
				}
				defer store.Close()

				prev, err := store.Latest(ctx)
				if errors.Is(err, snapshot.ErrNoSnapshot) {
					return fmt.Errorf("no snapshot in %s; run with --snapshot first", cfg.SnapshotPath)
				}
				if err != nil {
					return err
				}

				changes := snapshot.Diff(prev.Entries, snapshot.Fingerprint(set.Tables()))
				for _, c := range changes {
					logger.Warn("Row changed since snapshot", "table", c.Table, "id", c.ID, "kind", c.Kind)
				}
				logger.Info("Verify finished", "snapshot", prev.ID, "changes", len(changes))
				if len(changes) > 0 {
					return fmt.Errorf("%d rows differ from snapshot %s", len(changes), prev.ID)
				}
				return nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// runLocal handles config loading, logger setup, and context cancellation.
func runLocal(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = newLogger(cfg)

	return fn(ctx, cfg)
}

// runSeed handles config loading, DB connection, and context cancellation.
func runSeed(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	return runLocal(func(ctx context.Context, cfg *config.Config) error {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}

		pool, err := db.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		return fn(ctx, cfg, pool)
	})
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func saveSnapshot(ctx context.Context, path string, tables []record.Table, summary string) (string, error) {
	store, err := snapshot.Open(path)
	if err != nil {
		return "", err
	}
	defer store.Close()
	return store.Save(ctx, snapshot.Fingerprint(tables), summary)
}

// pick keeps the named tables, in layout order.
func pick(tables []record.Table, names ...string) []record.Table {
	var out []record.Table
	for _, t := range tables {
		if slices.Contains(names, t.Name) {
			out = append(out, t)
		}
	}
	return out
}

func logErrors(errs []string) {
	for _, e := range errs {
		logger.Error("run error", "error", e)
	}
}
