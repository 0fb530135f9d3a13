// Package usage records every provider attempt for later analytics. Writes
// are batched and best-effort; the request path never waits on them.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sahayak-ai/sahayak/pkg/models"
)

// Store is the durable sink for usage entries.
type Store interface {
	// WriteBatch persists a batch of entries in one transaction.
	WriteBatch(ctx context.Context, entries []models.UsageEntry) error
	// Summary returns aggregated usage, optionally filtered by user and provider.
	Summary(ctx context.Context, userID, provider string) ([]models.UsageSummary, error)
	// Close releases resources.
	Close() error
}

// SQLiteStore implements Store with a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const createUsageTable = `
CREATE TABLE IF NOT EXISTS usage_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	model TEXT NOT NULL,
	tokens_in INTEGER NOT NULL,
	tokens_out INTEGER NOT NULL,
	latency_ms INTEGER NOT NULL,
	cached INTEGER NOT NULL,
	success INTEGER NOT NULL,
	error_message TEXT,
	query_category TEXT NOT NULL,
	tier INTEGER NOT NULL,
	fallback_used INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_usage_user_time ON usage_log(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_usage_provider ON usage_log(provider);
`

// NewStore creates a SQLiteStore and runs auto-migration.
func NewStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}
	if _, err := db.Exec(createUsageTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate usage db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// WriteBatch persists entries in one transaction. Ordering across entries is
// not guaranteed by callers, only eventual durability.
func (s *SQLiteStore) WriteBatch(ctx context.Context, entries []models.UsageEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin usage batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO usage_log
		 (user_id, provider, model, tokens_in, tokens_out, latency_ms, cached,
		  success, error_message, query_category, tier, fallback_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare usage insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			e.UserID, e.Provider, e.Model, e.TokensIn, e.TokensOut, e.LatencyMs,
			e.Cached, e.Success, e.ErrorMessage, string(e.QueryCategory), e.Tier,
			e.FallbackUsed, createdAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert usage entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit usage batch: %w", err)
	}
	return nil
}

// Summary returns aggregated usage grouped by user and provider.
func (s *SQLiteStore) Summary(ctx context.Context, userID, provider string) ([]models.UsageSummary, error) {
	query := `SELECT user_id, provider, COUNT(*),
		SUM(CASE WHEN success THEN 1 ELSE 0 END),
		SUM(CASE WHEN success THEN 0 ELSE 1 END),
		SUM(tokens_in), SUM(tokens_out)
		FROM usage_log WHERE 1=1`
	var args []any
	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}
	if provider != "" {
		query += ` AND provider = ?`
		args = append(args, provider)
	}
	query += ` GROUP BY user_id, provider ORDER BY user_id, provider`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("usage summary: %w", err)
	}
	defer rows.Close()

	var summaries []models.UsageSummary
	for rows.Next() {
		var sum models.UsageSummary
		if err := rows.Scan(&sum.UserID, &sum.Provider, &sum.RequestCount,
			&sum.Successes, &sum.Failures, &sum.TotalIn, &sum.TotalOut); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
