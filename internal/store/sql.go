package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqlDialect holds the statements that differ between SQL engines.
type sqlDialect struct {
	name   string
	create string
	get    string
	set    string
	delete string
}

// sqlBackend stores values in a two-column key/value table.
type sqlBackend struct {
	db      *sql.DB
	dialect sqlDialect
	table   string
}

func newSQLBackend(ctx context.Context, db *sql.DB, table string, dialect func(table string) sqlDialect) (*sqlBackend, error) {
	if !isValidIdentifier(table) {
		db.Close()
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	d := dialect(table)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s store: failed to connect: %w", d.name, err)
	}
	if _, err := db.ExecContext(ctx, d.create); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s store: failed to create table %s: %w", d.name, table, err)
	}
	return &sqlBackend{db: db, dialect: d, table: table}, nil
}

// Name returns the backend identifier
func (s *sqlBackend) Name() string { return s.dialect.name }

// Table returns the key/value table name
func (s *sqlBackend) Table() string { return s.table }

// Get reads the value for key
func (s *sqlBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, s.dialect.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set upserts the value for key
func (s *sqlBackend) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.dialect.set, key, value)
	return err
}

// Delete removes the row for key
func (s *sqlBackend) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.delete, key)
	return err
}

// Close closes the database connection
func (s *sqlBackend) Close() error {
	return s.db.Close()
}

// isValidIdentifier checks if a string is a valid SQL identifier
func isValidIdentifier(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
