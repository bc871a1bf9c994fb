package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

func sqliteDialect(table string) sqlDialect {
	return sqlDialect{
		name: "sqlite",
		create: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, table),
		get: fmt.Sprintf("SELECT value FROM %s WHERE key = ?", table),
		set: fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, table),
		delete: fmt.Sprintf("DELETE FROM %s WHERE key = ?", table),
	}
}

// NewSQLiteBackend opens (or creates) the database at dbPath and ensures the
// key/value table exists.
func NewSQLiteBackend(ctx context.Context, dbPath, table string) (Backend, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite store: failed to create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: failed to open database: %w", err)
	}
	// A single connection serializes writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	return newSQLBackend(ctx, db, table, sqliteDialect)
}
