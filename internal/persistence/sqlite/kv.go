// Package sqlite implements the persistence.KV contract over a single
// key/value table in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// KV stores string values by key in SQLite.
type KV struct {
	db *sql.DB
}

// Open creates the database handle for the given DSN.
func Open(dsn string) (*KV, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// The kv table serializes whole snapshots; a single writer avoids
	// SQLITE_BUSY churn under concurrent HTTP handlers.
	db.SetMaxOpenConns(1)

	return &KV{db: db}, nil
}

// Migrate creates the kv table when it does not exist yet.
func (k *KV) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`
	if _, err := k.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// Get returns the value stored under key and whether it was present.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `SELECT value FROM kv WHERE key = ?`

	var value string
	err := k.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any previous value.
func (k *KV) Put(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := k.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (k *KV) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv WHERE key = ?`
	if _, err := k.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Ping tests the database connection.
func (k *KV) Ping(ctx context.Context) error {
	return k.db.PingContext(ctx)
}

// Close closes the database handle.
func (k *KV) Close() error {
	if k == nil || k.db == nil {
		return nil
	}
	return k.db.Close()
}
