// Package db provides the persistence backends for cached term chunks.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dsjohal14/synfinder/internal/scope/search"
)

// ErrNotFound is returned by Get when no chunk is stored under a key
var ErrNotFound = errors.New("chunk not found")

// SourceRef describes the external source a chunk was fetched from
type SourceRef struct {
	Address string            `json:"address"`
	Params  map[string]string `json:"params,omitempty"`
}

// Chunk is one contiguous, immutable slice of a cached corpus
type Chunk struct {
	SourceKey string                 `json:"source_key"`
	Index     int                    `json:"index"` // 1-based
	Start     int                    `json:"start"` // 1-based global term index, inclusive
	End       int                    `json:"end"`   // inclusive
	SavedAt   time.Time              `json:"saved_at"`
	Source    SourceRef              `json:"source"`
	Terms     []search.ReferenceTerm `json:"terms"`
}

// Key returns the storage key of the chunk
func (c *Chunk) Key() string {
	return ChunkKey(c.SourceKey, c.Index)
}

// Backend is a key/value store for chunks. Implementations are safe for
// concurrent use; no transactional guarantees are assumed across calls.
type Backend interface {
	// Put stores chunk under key, replacing any previous value
	Put(ctx context.Context, key string, chunk *Chunk) error

	// Get loads the chunk stored under key or returns ErrNotFound
	Get(ctx context.Context, key string) (*Chunk, error)

	// Keys lists the stored keys starting with prefix, in lexical order
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources
	Close() error
}

// ChunkKey builds the storage key for chunk index of a source
func ChunkKey(sourceKey string, index int) string {
	return sourceKey + ":" + strconv.Itoa(index)
}

// KeyPrefix is the prefix shared by every chunk key of a source
func KeyPrefix(sourceKey string) string {
	return sourceKey + ":"
}

// ParseKey splits a storage key into its source key and chunk index
func ParseKey(key string) (sourceKey string, index int, ok bool) {
	i := strings.LastIndexByte(key, ':')
	if i <= 0 {
		return "", 0, false
	}
	index, err := strconv.Atoi(key[i+1:])
	if err != nil || index < 1 {
		return "", 0, false
	}
	return key[:i], index, true
}

func encodeChunk(chunk *Chunk) ([]byte, error) {
	data, err := json.Marshal(chunk)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chunk %s: %w", chunk.Key(), err)
	}
	return data, nil
}

func decodeChunk(key string, data []byte) (*Chunk, error) {
	var chunk Chunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, fmt.Errorf("failed to decode chunk %s: %w", key, err)
	}
	return &chunk, nil
}
