package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection used by the run ledger
type DB struct {
	*sql.DB
}

// NewDB opens a Postgres connection and verifies it
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{DB: db}, nil
}

// EnsureSchema creates the ledger tables when they do not exist yet. The
// harness is invoked manually, so it owns its own schema.
func (db *DB) EnsureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			scenario TEXT NOT NULL,
			transport TEXT NOT NULL,
			nodes INT NOT NULL,
			status TEXT NOT NULL,
			training_elapsed_ms BIGINT NOT NULL DEFAULT 0,
			scoring_elapsed_ms BIGINT NOT NULL DEFAULT 0,
			estimated_cost_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS run_events (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES runs(id),
			at TIMESTAMPTZ NOT NULL,
			phase TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure ledger schema: %w", err)
	}
	return nil
}
