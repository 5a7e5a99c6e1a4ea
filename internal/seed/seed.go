package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/record"
)

//go:embed schema.sql
var schemaSQL string

// Tables lists the seeded tables in load order; referenced tables first.
var Tables = []string{
	config.ClubsTable,
	config.ClubVariantsTable,
	config.CompetitorsTable,
	config.RegattasTable,
	config.RacesTable,
	config.PlacementsTable,
	config.ResultsTable,
	config.ParticipationsTable,
}

// EnsureSchema creates missing tables and indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SeedSet upserts every entity table of set in dependency order. Row
// failures are collected; seeding carries on with the remaining rows.
func SeedSet(ctx context.Context, pool *pgxpool.Pool, set *record.Set, logger *slog.Logger) SeedResult {
	var result SeedResult

	logger.Info("Seeding clubs...", "table", describe(config.ClubsTable, len(set.Clubs)))
	result.ClubsUpserted = upsertAll(ctx, pool, config.ClubsTable, upsertClubSQL, set.Clubs,
		func(c record.Club) string { return c.Key }, clubArgs, &result)
	result.VariantsUpserted = upsertAll(ctx, pool, config.ClubVariantsTable, upsertVariantSQL, set.ClubVariants,
		func(v record.ClubVariant) string { return v.ID }, variantArgs, &result)
	logger.Info("Clubs done", "clubs", result.ClubsUpserted, "variants", result.VariantsUpserted)

	result.CompetitorsUpserted = upsertAll(ctx, pool, config.CompetitorsTable, upsertCompetitorSQL, set.Competitors,
		func(c record.Competitor) string { return c.ID }, competitorArgs, &result)
	logger.Info("Competitors done", "count", result.CompetitorsUpserted)

	logger.Info("Seeding regattas...", "table", describe(config.RegattasTable, len(set.Regattas)))
	result.RegattasUpserted = upsertAll(ctx, pool, config.RegattasTable, upsertRegattaSQL, set.Regattas,
		func(r record.Regatta) string { return r.ID }, regattaArgs, &result)
	result.RacesUpserted = upsertAll(ctx, pool, config.RacesTable, upsertRaceSQL, set.Races,
		func(r record.Race) string { return r.ID }, raceArgs, &result)
	result.PlacementsUpserted = upsertAll(ctx, pool, config.PlacementsTable, upsertPlacementSQL, set.Placements,
		func(p record.Placement) string { return p.ID }, placementArgs, &result)
	result.ResultsUpserted = upsertAll(ctx, pool, config.ResultsTable, upsertResultSQL, set.Results,
		func(r record.Result) string { return r.ID }, resultArgs, &result)
	logger.Info("Regattas done",
		"regattas", result.RegattasUpserted, "races", result.RacesUpserted,
		"placements", result.PlacementsUpserted, "results", result.ResultsUpserted)

	result.ParticipationsUpserted = upsertAll(ctx, pool, config.ParticipationsTable, upsertParticipationSQL, set.Participations,
		func(p record.Participation) string { return p.ID }, participationArgs, &result)
	logger.Info("Participations done", "count", result.ParticipationsUpserted)

	logger.Info("Seed complete", "summary", result.Summary())
	return result
}
