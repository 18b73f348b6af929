package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// TierStat is one row of the per-tier report.
type TierStat struct {
	Source       string
	Tier         string
	Decisions    int64
	Share        float64
	OverrideRate float64
	MeanMicros   float64
	P95Micros    float64
}

// openArchive returns an in-memory DuckDB with a decisions view over every
// parquet file under roots. Files still in tmp/ are skipped.
func openArchive(roots []string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	_, _ = db.Exec("PRAGMA threads=4")

	globs := make([]string, 0, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		glob := filepath.Join(root, "**", "*.parquet")
		globs = append(globs, "'"+escapeSQLString(glob)+"'")
	}
	if len(globs) == 0 {
		_ = db.Close()
		return nil, fmt.Errorf("no archive roots given")
	}

	sqlText := `CREATE OR REPLACE VIEW decisions AS
		SELECT * FROM read_parquet([` + strings.Join(globs, ",") + `], filename=true, union_by_name=true)
		WHERE NOT regexp_matches(filename, '/tmp/[^/]*$')`
	if _, err := db.Exec(sqlText); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create view: %w", err)
	}
	return db, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

const tierStatsSQL = `
SELECT
	source,
	tier,
	count(*) AS decisions,
	CAST(count(*) AS DOUBLE) / sum(count(*)) OVER (PARTITION BY source) AS share,
	avg(CASE WHEN overridden THEN 1.0 ELSE 0.0 END) AS override_rate,
	avg(elapsed_us) AS mean_us,
	quantile_cont(CAST(elapsed_us AS DOUBLE), 0.95) AS p95_us
FROM decisions
WHERE (CAST(? AS VARCHAR) = '' OR source = CAST(? AS VARCHAR))
GROUP BY source, tier
ORDER BY source, decisions DESC, tier`

func queryTierStats(ctx context.Context, db *sql.DB, source string) ([]TierStat, error) {
	rows, err := db.QueryContext(ctx, tierStatsSQL, source, source)
	if err != nil {
		return nil, fmt.Errorf("query tier stats: %w", err)
	}
	defer rows.Close()

	var out []TierStat
	for rows.Next() {
		var st TierStat
		if err := rows.Scan(&st.Source, &st.Tier, &st.Decisions, &st.Share, &st.OverrideRate, &st.MeanMicros, &st.P95Micros); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// queryGameCount returns how many distinct games and rows the archive holds.
func queryGameCount(ctx context.Context, db *sql.DB) (games, turns int64, err error) {
	err = db.QueryRowContext(ctx, `SELECT count(DISTINCT game_id), count(*) FROM decisions`).Scan(&games, &turns)
	return games, turns, err
}
