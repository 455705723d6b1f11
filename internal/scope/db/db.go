package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS term_cache_chunks (
	key        TEXT PRIMARY KEY,
	source_key TEXT NOT NULL,
	idx        INTEGER NOT NULL,
	start_pos  INTEGER NOT NULL,
	end_pos    INTEGER NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL,
	payload    JSONB NOT NULL
)`

// PostgresStore keeps chunks in a Postgres table
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to Postgres and ensures the chunk table exists
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Put upserts chunk under key
func (s *PostgresStore) Put(ctx context.Context, key string, chunk *Chunk) error {
	payload, err := encodeChunk(chunk)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO term_cache_chunks (key, source_key, idx, start_pos, end_pos, saved_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			source_key = EXCLUDED.source_key,
			idx = EXCLUDED.idx,
			start_pos = EXCLUDED.start_pos,
			end_pos = EXCLUDED.end_pos,
			saved_at = EXCLUDED.saved_at,
			payload = EXCLUDED.payload
	`, key, chunk.SourceKey, chunk.Index, chunk.Start, chunk.End, chunk.SavedAt, payload)
	if err != nil {
		return fmt.Errorf("failed to store chunk %s: %w", key, err)
	}
	return nil
}

// Get loads the chunk stored under key
func (s *PostgresStore) Get(ctx context.Context, key string) (*Chunk, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, "SELECT payload FROM term_cache_chunks WHERE key = $1", key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk %s: %w", key, err)
	}
	return decodeChunk(key, payload)
}

// Keys lists stored keys starting with prefix
func (s *PostgresStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM term_cache_chunks WHERE key LIKE $1 ESCAPE '\' ORDER BY key`,
		likePrefix(prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk keys: %w", err)
	}
	defer rows.Close()

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
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM term_cache_chunks WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to delete chunk %s: %w", key, err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

