package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQL drivers accepted by NewSQL.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// SQL is a Storage backed by a single key/value table in SQLite or
// Postgres. QuotaBytes bounds the size of each stored value.
type SQL struct {
	db         *sqlx.DB
	quotaBytes int
}

// NewSQL opens the database with the given driver and DSN and creates the
// key/value table if it doesn't exist.
func NewSQL(driver, dsn string, quotaBytes int) (*SQL, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQL{db: db, quotaBytes: quotaBytes}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the kv table if it doesn't exist.
func (s *SQL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQL) Close() error {
	return s.db.Close()
}

// Get retrieves the value stored under key.
func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	query := s.db.Rebind("SELECT value FROM kv WHERE key = ?")

	var value string
	err := s.db.GetContext(ctx, &value, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to query value: %v", ErrUnavailable, err)
	}

	return value, true, nil
}

// Set inserts or replaces the value stored under key.
func (s *SQL) Set(ctx context.Context, key, value string) error {
	if exceedsQuota(s.quotaBytes, value) {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrQuotaExceeded, len(value), s.quotaBytes)
	}

	query := s.db.Rebind(`
	INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`)
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to store value: %w", err)
	}

	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *SQL) Remove(ctx context.Context, key string) error {
	query := s.db.Rebind("DELETE FROM kv WHERE key = ?")
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}
