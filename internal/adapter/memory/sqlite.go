package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists agent long-term memory as (agent, key) → value rows.
// Values are opaque to the store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// the schema migration. Use ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate memory db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS agent_memory (
			agent_id   TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (agent_id, key)
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Put stores or replaces a value.
func (s *SQLiteStore) Put(ctx context.Context, agentID, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_memory (agent_id, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(agent_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		agentID, key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Get returns the stored value and whether it exists.
func (s *SQLiteStore) Get(ctx context.Context, agentID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM agent_memory WHERE agent_id = ? AND key = ?", agentID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, agentID, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM agent_memory WHERE agent_id = ? AND key = ?", agentID, key)
	return err
}
