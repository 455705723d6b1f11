package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dsjohal14/synfinder/internal/scope/db"
	"github.com/dsjohal14/synfinder/internal/scope/search"
)

var wheat = db.SourceRef{
	Address: "https://wheat.example.org/brapi/v1",
	Params:  map[string]string{"programDbId": "42", "crop": "wheat"},
}

func terms(n int) []search.ReferenceTerm {
	out := make([]search.ReferenceTerm, n)
	for i := range out {
		out[i] = search.ReferenceTerm{Term: "T", Type: search.TypeName, Record: search.Record{ID: "1", Name: "T"}}
	}
	return out
}

// fill caches sizes as consecutive chunks
func fill(t *testing.T, c *TermCache, src db.SourceRef, sizes ...int) {
	t.Helper()
	start := 1
	for i, n := range sizes {
		require.NoError(t, c.Put(context.Background(), src, i+1, terms(n), start, start+n-1))
		start += n
	}
}

func newCache(t *testing.T) *TermCache {
	t.Helper()
	store, err := db.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, zerolog.Nop())
}

func TestSourceKey(t *testing.T) {
	a := SourceKey(db.SourceRef{Address: "https://x.org/brapi/", Params: map[string]string{"a": "1", "b": "2"}})
	b := SourceKey(db.SourceRef{Address: "https://x.org/brapi", Params: map[string]string{"b": "2", "a": "1"}})
	assert.Equal(t, a, b, "trailing slash and param order must not change the key")
	assert.Len(t, a, 16)

	c := SourceKey(db.SourceRef{Address: "https://x.org/brapi", Params: map[string]string{"a": "1"}})
	assert.NotEqual(t, a, c)

	// Separators inside values cannot collide with other params
	d := SourceKey(db.SourceRef{Address: "https://x.org", Params: map[string]string{"a": "1&b=2"}})
	e := SourceKey(db.SourceRef{Address: "https://x.org", Params: map[string]string{"a": "1", "b": "2"}})
	assert.NotEqual(t, d, e)
}

func TestPutGetCount(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	fill(t, c, wheat, 3, 3, 2)

	count, err := c.Count(ctx, wheat)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	got, ok, err := c.Get(ctx, wheat, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 2)

	_, ok, err = c.Get(ctx, wheat, 4)
	require.NoError(t, err)
	assert.False(t, ok, "missing chunk is absent, not an error")

	// Equivalent descriptor reads the same chunks
	same := db.SourceRef{Address: wheat.Address + "/", Params: map[string]string{"crop": "wheat", "programDbId": "42"}}
	count, err = c.Count(ctx, same)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPutValidates(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	assert.Error(t, c.Put(ctx, wheat, 0, terms(1), 1, 1))
	assert.Error(t, c.Put(ctx, wheat, 1, terms(2), 1, 1))
}

func TestChunksAreContiguous(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)
	fill(t, c, wheat, 5, 5, 5, 1)

	count, err := c.Count(ctx, wheat)
	require.NoError(t, err)

	prevEnd := 0
	for i := 1; i <= count; i++ {
		info, ok, err := c.Info(ctx, wheat, i)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, prevEnd+1, info.Chunk.Start, "chunk %d", i)
		prevEnd = info.Chunk.End
	}
	assert.Equal(t, 16, prevEnd)
}

func TestInfo(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	saved := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return saved }

	_, ok, err := c.Info(ctx, wheat, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	fill(t, c, wheat, 4, 3)

	info, ok, err := c.Info(ctx, wheat, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, info.Chunks)
	assert.Equal(t, 7, info.Terms)
	assert.True(t, info.SavedAt.Equal(saved))
	assert.Nil(t, info.Chunk)

	info, ok, err = c.Info(ctx, wheat, 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, info.Chunk)
	assert.Equal(t, 1, info.Chunk.Start)
	assert.Equal(t, 4, info.Chunk.End)

	_, ok, err = c.Info(ctx, wheat, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	other := db.SourceRef{Address: "https://barley.example.org/brapi/v2"}
	fill(t, c, wheat, 2, 2)
	fill(t, c, other, 1)

	cached, err := c.IsCached(ctx, wheat, 0)
	require.NoError(t, err)
	assert.True(t, cached)
	cached, err = c.IsCached(ctx, wheat, 2)
	require.NoError(t, err)
	assert.True(t, cached)

	require.NoError(t, c.Clear(ctx, wheat))

	cached, err = c.IsCached(ctx, wheat, 0)
	require.NoError(t, err)
	assert.False(t, cached)
	cached, err = c.IsCached(ctx, wheat, 1)
	require.NoError(t, err)
	assert.False(t, cached)

	// Other sources are untouched
	cached, err = c.IsCached(ctx, other, 0)
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestAddresses(t *testing.T) {
	ctx := context.Background()
	c := New(db.NewMemStore(), zerolog.Nop())

	other := db.SourceRef{Address: "https://barley.example.org/brapi/v2"}
	fill(t, c, wheat, 1, 1, 1)
	fill(t, c, other, 1)

	sources, err := c.Addresses(ctx)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, other.Address, sources[0].Address)
	assert.Equal(t, wheat.Address, sources[1].Address)
	assert.Equal(t, "42", sources[1].Params["programDbId"])
}

func TestLeases(t *testing.T) {
	c := New(db.NewMemStore(), zerolog.Nop())

	unlock := c.Lock(wheat)

	var mu sync.Mutex
	var order []string
	done := make(chan struct{})
	go func() {
		release := c.RLock(wheat)
		mu.Lock()
		order = append(order, "read")
		mu.Unlock()
		release()
		close(done)
	}()

	// Other sources are not blocked
	c.RLock(db.SourceRef{Address: "https://other.example.org"})()

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	order = append(order, "refresh done")
	mu.Unlock()
	unlock()

	<-done
	assert.Equal(t, []string{"refresh done", "read"}, order)
}
