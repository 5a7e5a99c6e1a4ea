// Package maintenance holds post-load database hooks.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnalyzeTables refreshes planner statistics after a bulk load.
// Call this after a successful seed.
func AnalyzeTables(ctx context.Context, pool *pgxpool.Pool, tables []string, logger *slog.Logger) error {
	for _, t := range tables {
		start := time.Now()
		_, err := pool.Exec(ctx, AnalyzeStatement(t))
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Failed to analyze table",
				"table", t, "duration", dur, "error", err)
			return fmt.Errorf("analyze %s: %w", t, err)
		}
		logger.Info("Analyzed table", "table", t, "duration", dur)
	}
	return nil
}

// AnalyzeStatement returns the ANALYZE statement of one table.
func AnalyzeStatement(table string) string {
	return "ANALYZE " + pgx.Identifier{table}.Sanitize()
}
