package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ask_history (
    ask_id       BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    session_id   TEXT NOT NULL,
    dataset_name TEXT NOT NULL,
    prompt       TEXT NOT NULL,
    query_json   JSONB,
    outcome      TEXT NOT NULL,
    row_count    INTEGER NOT NULL DEFAULT 0,
    duration_ms  BIGINT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS ask_history_session_idx ON ask_history (session_id, ask_id DESC);
`

// EnsureSchema applies the ask_history schema. Statements are idempotent
// so repeated startup runs are safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply ask_history schema: %w", err)
	}
	return nil
}
