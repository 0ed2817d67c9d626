package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockKey int64 = 2026101801

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the meeting, chunk and extracted item tables. The
// embedding column is sized to dimensions, so changing the embedding model
// requires a fresh chunks table.
func EnsureSchema(ctx context.Context, db *sql.DB, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", dimensions)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, schemaDDL(dimensions)); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func schemaDDL(dimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS meetings (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	source_file TEXT NOT NULL DEFAULT '',
	transcript_format TEXT NOT NULL DEFAULT '',
	storage_path TEXT NOT NULL DEFAULT '',
	num_speakers INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_meetings_created_at ON meetings(created_at DESC);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	meeting_id TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
	strategy TEXT NOT NULL,
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	speaker TEXT,
	start_time DOUBLE PRECISION,
	end_time DOUBLE PRECISION,
	embedding vector(%d) NOT NULL,
	content_tsv tsvector GENERATED ALWAYS AS (to_tsvector('english', content)) STORED,
	UNIQUE (meeting_id, strategy, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_meeting_strategy ON chunks(meeting_id, strategy);
CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING hnsw (embedding vector_cosine_ops);
CREATE INDEX IF NOT EXISTS idx_chunks_content_tsv ON chunks USING gin (content_tsv);

CREATE TABLE IF NOT EXISTS extracted_items (
	id TEXT PRIMARY KEY,
	meeting_id TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
	item_type TEXT NOT NULL,
	content TEXT NOT NULL,
	assignee TEXT,
	due_date TEXT,
	speaker TEXT,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extracted_items_meeting_type ON extracted_items(meeting_id, item_type);
`, dimensions)
}
