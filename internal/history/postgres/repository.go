package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/askblob/askblob/internal/history"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

func (r *Repository) RecordAsk(ctx context.Context, entry history.Entry) (history.Entry, error) {
	query := `
INSERT INTO ask_history (session_id, dataset_name, prompt, query_json, outcome, row_count, duration_ms)
VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)
RETURNING ask_id, created_at`

	var queryJSON any
	if len(entry.QueryJSON) > 0 {
		queryJSON = string(entry.QueryJSON)
	}

	if err := r.db.QueryRowContext(ctx, query,
		entry.SessionID,
		entry.DatasetName,
		entry.Prompt,
		queryJSON,
		entry.Outcome,
		entry.RowCount,
		entry.Duration.Milliseconds(),
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return history.Entry{}, fmt.Errorf("record ask: %w", err)
	}
	return entry, nil
}

func (r *Repository) ListBySession(ctx context.Context, sessionID string, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT ask_id, session_id, dataset_name, prompt, query_json, outcome, row_count, duration_ms, created_at
FROM ask_history
WHERE session_id = $1
ORDER BY ask_id DESC
LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ask history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		var entry history.Entry
		var queryJSON sql.NullString
		var durationMs int64
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.DatasetName,
			&entry.Prompt,
			&queryJSON,
			&entry.Outcome,
			&entry.RowCount,
			&durationMs,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ask history row: %w", err)
		}
		if queryJSON.Valid {
			entry.QueryJSON = []byte(queryJSON.String)
		}
		entry.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ask history rows: %w", err)
	}
	return entries, nil
}
