package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/regatta-data/internal/config"
	"github.com/albapepper/regatta-data/internal/record"
)

// batchSize bounds one pgx batch and so the number of rows replayed one by
// one after a failure.
const batchSize = 500

var (
	upsertClubSQL = `
		INSERT INTO ` + config.ClubsTable + ` (key, abbreviation, name, group_id, occurrences)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (key) DO UPDATE SET
			abbreviation = EXCLUDED.abbreviation,
			name = EXCLUDED.name,
			group_id = EXCLUDED.group_id,
			occurrences = EXCLUDED.occurrences,
			updated_at = NOW()`

	upsertVariantSQL = `
		INSERT INTO ` + config.ClubVariantsTable + ` (id, abbreviation, key, name, group_id, occurrences)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			abbreviation = EXCLUDED.abbreviation,
			group_id = EXCLUDED.group_id,
			occurrences = EXCLUDED.occurrences,
			updated_at = NOW()`

	upsertCompetitorSQL = `
		INSERT INTO ` + config.CompetitorsTable + ` (id, full_name, normalized_name, source)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			normalized_name = EXCLUDED.normalized_name,
			source = EXCLUDED.source,
			updated_at = NOW()`

	upsertRegattaSQL = `
		INSERT INTO ` + config.RegattasTable + ` (id, league, year, round, city, name)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			city = COALESCE(EXCLUDED.city, ` + config.RegattasTable + `.city),
			name = EXCLUDED.name,
			updated_at = NOW()`

	upsertRaceSQL = `
		INSERT INTO ` + config.RacesTable + ` (id, regatta_id, race_index, race_code, is_final)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			race_index = EXCLUDED.race_index,
			race_code = EXCLUDED.race_code,
			is_final = EXCLUDED.is_final,
			updated_at = NOW()`

	upsertPlacementSQL = `
		INSERT INTO ` + config.PlacementsTable + ` (id, race_id, club_variant_id, club, place, penalty, boat_number)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			club_variant_id = EXCLUDED.club_variant_id,
			place = EXCLUDED.place,
			penalty = EXCLUDED.penalty,
			boat_number = EXCLUDED.boat_number,
			updated_at = NOW()`

	upsertResultSQL = `
		INSERT INTO ` + config.ResultsTable + ` (id, regatta_id, club, club_variant_id, place)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			club_variant_id = EXCLUDED.club_variant_id,
			place = EXCLUDED.place,
			updated_at = NOW()`

	upsertParticipationSQL = `
		INSERT INTO ` + config.ParticipationsTable + ` (id, competitor_id, regatta_id, club, club_variant_id, training)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			club_variant_id = EXCLUDED.club_variant_id,
			training = EXCLUDED.training,
			updated_at = NOW()`
)

// execer is the part of pgxpool.Pool the upserts need.
type execer interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// upsertAll sends one statement per item in batches and returns how many
// succeeded. A batch runs as one implicit transaction, so a single failing
// row rolls back the whole chunk; such a chunk is replayed row by row and
// only the rows that fail on their own are recorded on result.
func upsertAll[T any](ctx context.Context, db execer, table, sql string, items []T, key func(T) string, args func(T) []any, result *SeedResult) int {
	ok := 0
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		chunk := items[start:end]

		if err := sendChunk(ctx, db, sql, chunk, args); err == nil {
			ok += len(chunk)
			continue
		}
		for _, it := range chunk {
			if _, err := db.Exec(ctx, sql, args(it)...); err != nil {
				result.AddErrorf("upsert %s %s: %v", table, key(it), err)
				continue
			}
			ok++
		}
	}
	return ok
}

func sendChunk[T any](ctx context.Context, db execer, sql string, chunk []T, args func(T) []any) error {
	batch := &pgx.Batch{}
	for _, it := range chunk {
		batch.Queue(sql, args(it)...)
	}
	br := db.SendBatch(ctx, batch)
	for range chunk {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

func clubArgs(c record.Club) []any {
	return []any{c.Key, c.Abbreviation, nilEmpty(c.Name), nilEmpty(c.GroupID), c.Occurrences}
}

func variantArgs(v record.ClubVariant) []any {
	return []any{v.ID, v.Abbreviation, v.Key, v.Name, nilEmpty(v.GroupID), v.Occurrences}
}

func competitorArgs(c record.Competitor) []any {
	return []any{c.ID, c.FullName, c.NormalizedName, c.Source}
}

func regattaArgs(r record.Regatta) []any {
	return []any{r.ID, r.League, r.Year, r.Round, nilEmpty(r.City), r.Name}
}

func raceArgs(r record.Race) []any {
	return []any{r.ID, r.RegattaID, r.Index, r.Code, r.Final}
}

func placementArgs(p record.Placement) []any {
	return []any{p.ID, p.RaceID, nilEmpty(p.ClubVariantID), p.Club, p.Place, p.Penalty, p.BoatNumber}
}

func resultArgs(r record.Result) []any {
	return []any{r.ID, r.RegattaID, r.Club, nilEmpty(r.ClubVariantID), r.Place}
}

func participationArgs(p record.Participation) []any {
	return []any{p.ID, p.CompetitorID, p.RegattaID, p.Club, nilEmpty(p.ClubVariantID), p.Training}
}

// nilEmpty maps "" to SQL NULL.
func nilEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func describe(table string, n int) string {
	return fmt.Sprintf("%s (%d rows)", table, n)
}
