package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// chunkExt is the file extension of a stored chunk
const chunkExt = ".json"

// FileStore keeps one JSON file per chunk under dataDir/chunks/<sourceKey>/.
// Writes go through a temp file and a rename so readers never observe a
// partial chunk; a file lock serialises writers across processes.
type FileStore struct {
	dir  string
	mu   sync.RWMutex
	lock *flock.Flock
}

// NewFileStore creates a file store rooted at dataDir
func NewFileStore(dataDir string) (*FileStore, error) {
	dir := filepath.Join(dataDir, "chunks")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}

	return &FileStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dataDir, "chunks.lock")),
	}, nil
}

// Put writes chunk to disk, replacing any previous version
func (s *FileStore) Put(_ context.Context, key string, chunk *Chunk) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := encodeChunk(chunk)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire chunk lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create source directory: %w", err)
	}
	return writeFileAtomic(path, data)
}

// Get reads the chunk stored under key
func (s *FileStore) Get(_ context.Context, key string) (*Chunk, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk %s: %w", key, err)
	}
	return decodeChunk(key, data)
}

// Keys lists stored chunk keys starting with prefix
func (s *FileStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sources, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunk directory: %w", err)
	}

	var keys []string
	for _, src := range sources {
		if !src.IsDir() {
			continue
		}
		// Skip sources that cannot carry the prefix
		if !strings.HasPrefix(src.Name()+":", prefix) && !strings.HasPrefix(prefix, src.Name()+":") {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.dir, src.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to list source %s: %w", src.Name(), err)
		}
		for _, e := range entries {
			name, ok := strings.CutSuffix(e.Name(), chunkExt)
			if !ok || e.IsDir() {
				continue
			}
			index, err := strconv.Atoi(name)
			if err != nil {
				continue
			}
			key := ChunkKey(src.Name(), index)
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the chunk file for key
func (s *FileStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire chunk lock: %w", err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete chunk %s: %w", key, err)
	}
	// Drop the source directory once its last chunk is gone
	_ = os.Remove(filepath.Dir(path))
	return nil
}

// Close releases the file lock
func (s *FileStore) Close() error {
	return s.lock.Close()
}

func (s *FileStore) path(key string) (string, error) {
	sourceKey, index, ok := ParseKey(key)
	if !ok || strings.ContainsAny(sourceKey, `/\.`) {
		return "", fmt.Errorf("invalid chunk key %q", key)
	}
	return filepath.Join(s.dir, sourceKey, strconv.Itoa(index)+chunkExt), nil
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write chunk: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync chunk: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close chunk: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move chunk into place: %w", err)
	}
	return nil
}
