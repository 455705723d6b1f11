package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS term_cache_chunks (
	key        TEXT PRIMARY KEY,
	source_key TEXT NOT NULL,
	idx        INTEGER NOT NULL,
	start_pos  INTEGER NOT NULL,
	end_pos    INTEGER NOT NULL,
	saved_at   DATETIME NOT NULL,
	payload    BLOB NOT NULL
)`

// SQLiteStore keeps chunks in a single SQLite database file
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) dataDir/cache.db
func NewSQLiteStore(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, "cache.db")
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite cache: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.path
}

// Put upserts chunk under key
func (s *SQLiteStore) Put(ctx context.Context, key string, chunk *Chunk) error {
	payload, err := encodeChunk(chunk)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO term_cache_chunks (key, source_key, idx, start_pos, end_pos, saved_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			source_key = excluded.source_key,
			idx = excluded.idx,
			start_pos = excluded.start_pos,
			end_pos = excluded.end_pos,
			saved_at = excluded.saved_at,
			payload = excluded.payload
	`, key, chunk.SourceKey, chunk.Index, chunk.Start, chunk.End, chunk.SavedAt.UTC(), payload)
	if err != nil {
		return fmt.Errorf("failed to store chunk %s: %w", key, err)
	}
	return nil
}

// Get loads the chunk stored under key
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Chunk, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM term_cache_chunks WHERE key = ?", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s: %w", key, err)
	}
	return decodeChunk(key, payload)
}

// Keys lists stored keys starting with prefix
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM term_cache_chunks WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan chunk key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Delete removes the chunk stored under key
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM term_cache_chunks WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete chunk %s: %w", key, err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// likePrefix escapes LIKE wildcards in prefix and appends %
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
