// internal/adapter/storage/history_store.go

// Package storage persists analysis-run history in Postgres.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"trendscout/internal/service/analysis"
)

// HistoryStore implements storage for completed analysis runs
type HistoryStore struct {
	db *pgxpool.Pool
}

// NewHistoryStore creates a new history store
func NewHistoryStore(db *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{
		db: db,
	}
}

// EnsureSchema creates the analysis_runs table if it does not exist
func (s *HistoryStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id BIGSERIAL PRIMARY KEY,
			handle TEXT NOT NULL,
			niche_category TEXT NOT NULL DEFAULT '',
			hashtags JSONB NOT NULL DEFAULT '[]',
			trend_count INT NOT NULL DEFAULT 0,
			used_fallback BOOLEAN NOT NULL DEFAULT FALSE,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_analysis_runs_handle_created
			ON analysis_runs (handle, created_at DESC)
	`

	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("error ensuring analysis_runs schema: %w", err)
	}

	return nil
}

// SaveRun archives one completed pipeline run
func (s *HistoryStore) SaveRun(ctx context.Context, run analysis.RunRecord) error {
	query := `
		INSERT INTO analysis_runs (
			handle, niche_category, hashtags, trend_count,
			used_fallback, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	hashtagsJSON, err := json.Marshal(run.Hashtags)
	if err != nil {
		return fmt.Errorf("error marshaling hashtags: %w", err)
	}

	_, err = s.db.Exec(ctx, query,
		run.Handle,
		run.NicheCategory,
		hashtagsJSON,
		run.TrendCount,
		run.UsedFallback,
		run.DurationMs,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving analysis run: %w", err)
	}

	return nil
}

// RecentRuns returns the most recent archived runs for a handle,
// newest first
func (s *HistoryStore) RecentRuns(ctx context.Context, handle string, limit int) ([]analysis.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, handle, niche_category, hashtags, trend_count,
		       used_fallback, duration_ms, created_at
		FROM analysis_runs
		WHERE handle = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.Query(ctx, query, handle, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []analysis.RunRecord
	for rows.Next() {
		var run analysis.RunRecord
		var hashtagsJSON []byte

		err := rows.Scan(
			&run.ID,
			&run.Handle,
			&run.NicheCategory,
			&hashtagsJSON,
			&run.TrendCount,
			&run.UsedFallback,
			&run.DurationMs,
			&run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning analysis run: %w", err)
		}

		if err := json.Unmarshal(hashtagsJSON, &run.Hashtags); err != nil {
			return nil, fmt.Errorf("error unmarshaling hashtags: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}

	return runs, nil
}
