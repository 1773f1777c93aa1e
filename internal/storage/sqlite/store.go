// Package sqlite provides a SQLite-backed completion store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/lucamaraschi/fastify/internal/storage"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS completions (
		id TEXT PRIMARY KEY,
		request_id TEXT,
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		body_size INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_completions_created_at
		ON completions(created_at)`)
	return err
}

// RecordCompletion saves a completion record.
func (s *Store) RecordCompletion(ctx context.Context, c *storage.Completion) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO completions (id, request_id, method, path, status_code, body_size, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.RequestID, c.Method, c.Path, c.StatusCode, c.BodySize, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	return nil
}

// ListCompletions returns the most recent records, newest first.
func (s *Store) ListCompletions(ctx context.Context, limit int) ([]*storage.Completion, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, request_id, method, path, status_code, body_size, created_at
		 FROM completions ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	var out []*storage.Completion
	for rows.Next() {
		c := &storage.Completion{}
		if err := rows.Scan(&c.ID, &c.RequestID, &c.Method, &c.Path, &c.StatusCode, &c.BodySize, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
