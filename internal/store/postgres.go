package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func postgresDialect(table string) sqlDialect {
	return sqlDialect{
		name: "postgres",
		create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, table),
		get: fmt.Sprintf("SELECT value FROM %s WHERE key = $1", table),
		set: fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, table),
		delete: fmt.Sprintf("DELETE FROM %s WHERE key = $1", table),
	}
}

// NewPostgresBackend connects to dsn and ensures the key/value table exists.
func NewPostgresBackend(ctx context.Context, dsn, table string) (Backend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: failed to open database: %w", err)
	}

	return newSQLBackend(ctx, db, table, postgresDialect)
}
