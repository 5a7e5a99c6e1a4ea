// Package config provides centralized configuration loaded from environment
// variables. Shared by every cmd/ingest subcommand.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names: single source of truth for CSV file names and schema.sql
// --------------------------------------------------------------------------

const (
	ClubsTable            = "clubs"
	ClubVariantsTable     = "club_variants"
	ClubConflictsTable    = "club_conflicts"
	CompetitorsTable      = "competitors"
	RegattasTable         = "regattas"
	RacesTable            = "races"
	PlacementsTable       = "placements"
	ResultsTable          = "regatta_results"
	ParticipationsTable   = "participations"
	ParticipationsQCTable = "participations_qc"
	UnresolvedTable       = "unresolved"
	DuplicateIDsTable     = "duplicate_ids"
	IDMigrationsTable     = "id_migrations"
	FileErrorsTable       = "file_errors"
)

// DefaultMaxRound is the last round tried for roster rows without rounds.
const DefaultMaxRound = 12

// DefaultWorkers is the number of result files loaded concurrently.
const DefaultWorkers = 4

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Sources
	ResultsDir     string
	RosterPaths    []string
	DirectoryPaths []string
	ClubGroupsPath string

	// Outputs
	OutputDir    string
	SnapshotPath string

	// Reconciliation
	MaxRound      int
	StrictRoster  bool
	DefaultLeague string
	DefaultYear   int
	Workers       int

	// Database (seed only)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Logging
	LogLevel  string
	LogFormat string // text, json
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	outputDir := envOr("REGATTA_OUTPUT_DIR", "./mnt/data/output")

	cfg := &Config{
		ResultsDir:     envOr("REGATTA_RESULTS_DIR", "./mnt/data/Regaty"),
		RosterPaths:    envList("REGATTA_ROSTER_PATHS", nil),
		DirectoryPaths: envList("REGATTA_DIRECTORY_PATHS", nil),
		ClubGroupsPath: envOr("REGATTA_CLUB_GROUPS", ".regatta-clubs.yaml"),

		OutputDir:    outputDir,
		SnapshotPath: envOr("REGATTA_SNAPSHOT_PATH", filepath.Join(outputDir, "snapshot.db")),

		MaxRound:      envInt("REGATTA_MAX_ROUND", DefaultMaxRound),
		StrictRoster:  envBool("REGATTA_STRICT_ROSTER", false),
		DefaultLeague: envOr("REGATTA_DEFAULT_LEAGUE", ""),
		DefaultYear:   envInt("REGATTA_DEFAULT_YEAR", 0),
		Workers:       envInt("REGATTA_WORKERS", DefaultWorkers),

		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		LogLevel:  strings.ToLower(envOr("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(envOr("LOG_FORMAT", "text")),
	}

	if cfg.MaxRound < 1 {
		return nil, fmt.Errorf("REGATTA_MAX_ROUND must be positive, got %d", cfg.MaxRound)
	}
	return cfg, nil
}

// RequireDatabase fails when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	return nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
