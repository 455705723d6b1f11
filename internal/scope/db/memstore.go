package db

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemStore is a thread-safe in-memory chunk store. Contents are lost when
// the process exits.
type MemStore struct {
	mu     sync.RWMutex
	chunks map[string]*Chunk
}

// NewMemStore creates a new empty in-memory store
func NewMemStore() *MemStore {
	return &MemStore{
		chunks: make(map[string]*Chunk),
	}
}

// Put stores a copy of chunk under key
func (m *MemStore) Put(_ context.Context, key string, chunk *Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[key] = clone(chunk)
	return nil
}

// Get retrieves a copy of the chunk stored under key
func (m *MemStore) Get(_ context.Context, key string) (*Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunk, ok := m.chunks[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(chunk), nil
}

// Keys returns the stored keys starting with prefix
func (m *MemStore) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, 0, len(m.chunks))
	for key := range m.chunks {
		if strings.HasPrefix(key, prefix) {
			result = append(result, key)
		}
	}
	sort.Strings(result)
	return result, nil
}

// Delete removes a chunk from the store
func (m *MemStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, key)
	return nil
}

// Count returns the number of chunks in the store
func (m *MemStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// Close is a no-op
func (m *MemStore) Close() error {
	return nil
}

func clone(chunk *Chunk) *Chunk {
	c := *chunk
	c.Terms = append(c.Terms[:0:0], chunk.Terms...)
	if chunk.Source.Params != nil {
		c.Source.Params = make(map[string]string, len(chunk.Source.Params))
		for k, v := range chunk.Source.Params {
			c.Source.Params[k] = v
		}
	}
	return &c
}
