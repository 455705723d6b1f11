// Package cache stores fetched corpora as ordered, contiguous chunks per
// source so a search never needs the whole corpus in memory at once.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"

	"github.com/dsjohal14/synfinder/internal/scope/db"
	"github.com/dsjohal14/synfinder/internal/scope/search"
)

// SourceKey hashes a source descriptor. The address is compared without a
// trailing slash and params are serialised in sorted key order, so
// equivalent descriptors always share a key.
func SourceKey(src db.SourceRef) string {
	keys := make([]string, 0, len(src.Params))
	for k := range src.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strings.TrimRight(src.Address, "/"))
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(src.Params[k]))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

// Info summarises the cached corpus of a source
type Info struct {
	Chunks  int        `json:"chunks"`
	SavedAt time.Time  `json:"saved"`
	Terms   int        `json:"terms"`
	Chunk   *ChunkInfo `json:"chunk,omitempty"`
}

// ChunkInfo describes a single cached chunk
type ChunkInfo struct {
	Index   int       `json:"index"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	SavedAt time.Time `json:"saved"`
}

// TermCache persists corpora through a db.Backend
type TermCache struct {
	backend db.Backend
	logger  zerolog.Logger
	now     func() time.Time

	mu     sync.Mutex
	leases map[string]*sync.RWMutex
}

// New creates a term cache on top of backend
func New(backend db.Backend, logger zerolog.Logger) *TermCache {
	return &TermCache{
		backend: backend,
		logger:  logger,
		now:     time.Now,
		leases:  make(map[string]*sync.RWMutex),
	}
}

// Put stores terms as chunk index of src. start and end are the 1-based
// global positions of the first and last term.
func (c *TermCache) Put(ctx context.Context, src db.SourceRef, index int, terms []search.ReferenceTerm, start, end int) error {
	if index < 1 {
		return fmt.Errorf("chunk index must be at least 1, got %d", index)
	}
	if end-start+1 != len(terms) {
		return fmt.Errorf("chunk %d spans %d..%d but holds %d terms", index, start, end, len(terms))
	}

	sk := SourceKey(src)
	chunk := &db.Chunk{
		SourceKey: sk,
		Index:     index,
		Start:     start,
		End:       end,
		SavedAt:   c.now().UTC(),
		Source:    src,
		Terms:     terms,
	}
	if err := c.backend.Put(ctx, chunk.Key(), chunk); err != nil {
		return err
	}

	c.logger.Debug().
		Str("source", sk).
		Int("chunk", index).
		Int("terms", len(terms)).
		Msg("chunk cached")
	return nil
}

// Get returns the terms of chunk index. ok is false when the chunk is absent.
func (c *TermCache) Get(ctx context.Context, src db.SourceRef, index int) ([]search.ReferenceTerm, bool, error) {
	chunk, err := c.backend.Get(ctx, db.ChunkKey(SourceKey(src), index))
	if errors.Is(err, db.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return chunk.Terms, true, nil
}

// Count returns the number of cached chunks of src
func (c *TermCache) Count(ctx context.Context, src db.SourceRef) (int, error) {
	keys, err := c.backend.Keys(ctx, db.KeyPrefix(SourceKey(src)))
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Info describes the cached corpus of src: the chunk count, when the last
// chunk was saved and the total term count. A positive index also reports
// that chunk's own span. ok is false when nothing is cached.
func (c *TermCache) Info(ctx context.Context, src db.SourceRef, index int) (*Info, bool, error) {
	count, err := c.Count(ctx, src)
	if err != nil || count == 0 {
		return nil, false, err
	}

	sk := SourceKey(src)
	last, err := c.backend.Get(ctx, db.ChunkKey(sk, count))
	if errors.Is(err, db.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	info := &Info{
		Chunks:  count,
		SavedAt: last.SavedAt,
		Terms:   last.End,
	}
	if index <= 0 {
		return info, true, nil
	}

	chunk := last
	if index != count {
		chunk, err = c.backend.Get(ctx, db.ChunkKey(sk, index))
		if errors.Is(err, db.ErrNotFound) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
	}
	info.Chunk = &ChunkInfo{
		Index:   chunk.Index,
		Start:   chunk.Start,
		End:     chunk.End,
		SavedAt: chunk.SavedAt,
	}
	return info, true, nil
}

// IsCached reports whether src has any cached chunk, or chunk index when
// index is positive
func (c *TermCache) IsCached(ctx context.Context, src db.SourceRef, index int) (bool, error) {
	if index <= 0 {
		count, err := c.Count(ctx, src)
		return count > 0, err
	}
	_, ok, err := c.Get(ctx, src, index)
	return ok, err
}

// Clear deletes every cached chunk of src
func (c *TermCache) Clear(ctx context.Context, src db.SourceRef) error {
	sk := SourceKey(src)
	keys, err := c.backend.Keys(ctx, db.KeyPrefix(sk))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := c.backend.Delete(ctx, key); err != nil {
			return err
		}
	}
	if len(keys) > 0 {
		c.logger.Info().Str("source", sk).Int("chunks", len(keys)).Msg("cache cleared")
	}
	return nil
}

// Addresses lists the distinct sources currently cached, ordered by address
func (c *TermCache) Addresses(ctx context.Context) ([]db.SourceRef, error) {
	keys, err := c.backend.Keys(ctx, "")
	if err != nil {
		return nil, err
	}

	// Lowest stored index per source
	first := make(map[string]int)
	for _, key := range keys {
		sk, index, ok := db.ParseKey(key)
		if !ok {
			continue
		}
		if cur, seen := first[sk]; !seen || index < cur {
			first[sk] = index
		}
	}

	sources := make([]db.SourceRef, 0, len(first))
	for sk, index := range first {
		chunk, err := c.backend.Get(ctx, db.ChunkKey(sk, index))
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, chunk.Source)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Address != sources[j].Address {
			return sources[i].Address < sources[j].Address
		}
		return SourceKey(sources[i]) < SourceKey(sources[j])
	})
	return sources, nil
}

// Lock takes the exclusive lease of src, held while a refresh clears and
// repopulates it. The returned func releases the lease.
func (c *TermCache) Lock(src db.SourceRef) func() {
	l := c.lease(src)
	l.Lock()
	return l.Unlock
}

// RLock takes a shared lease of src, held while a search reads its chunks
func (c *TermCache) RLock(src db.SourceRef) func() {
	l := c.lease(src)
	l.RLock()
	return l.RUnlock
}

func (c *TermCache) lease(src db.SourceRef) *sync.RWMutex {
	sk := SourceKey(src)
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.leases[sk]
	if !ok {
		l = &sync.RWMutex{}
		c.leases[sk] = l
	}
	return l
}
