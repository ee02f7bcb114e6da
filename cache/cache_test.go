package cache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MWATelescope/subtool/cache"
)

func TestAddAndGetRoundTrips(t *testing.T) {
	c := cache.New(1024)

	ok := c.Add(cache.SectionKey("header"), []byte("hello"))
	require.True(t, ok)

	buf, ok := c.Get(cache.SectionKey("header"))
	require.True(t, ok)
	require.Equal(t, []byte("hello"), buf)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(0), stats.Misses)
	require.Equal(t, int64(1), stats.Inserts)
}

func TestGetMissIncrementsMissCounter(t *testing.T) {
	c := cache.New(1024)

	_, ok := c.Get(cache.BlockKey(0))
	require.False(t, ok)
	require.Equal(t, int64(1), c.Stats().Misses)
}

func TestAddRejectsOversizedBuffer(t *testing.T) {
	c := cache.New(4)

	ok := c.Add(cache.BlockKey(0), make([]byte, 8))
	require.False(t, ok)
	require.Equal(t, int64(0), c.Used())
}

func TestAddEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.New(10)

	c.Add(cache.BlockKey(0), make([]byte, 5))
	c.Add(cache.BlockKey(1), make([]byte, 5))
	// Both entries now fill the 10-byte capacity exactly. Touching block 0
	// promotes it to most-recently-used, so adding a third 5-byte entry
	// must evict block 1, not block 0.
	_, ok := c.Get(cache.BlockKey(0))
	require.True(t, ok)

	c.Add(cache.BlockKey(2), make([]byte, 5))

	_, ok = c.Get(cache.BlockKey(0))
	require.True(t, ok, "block 0 was recently used and should survive eviction")

	_, ok = c.Get(cache.BlockKey(1))
	require.False(t, ok, "block 1 was least recently used and should have been evicted")

	_, ok = c.Get(cache.BlockKey(2))
	require.True(t, ok)

	require.LessOrEqual(t, c.Used(), c.Capacity())
}

func TestAddReplacesExistingKeyWithoutDoubleCounting(t *testing.T) {
	c := cache.New(10)

	c.Add(cache.BlockKey(0), make([]byte, 5))
	c.Add(cache.BlockKey(0), make([]byte, 8))

	require.Equal(t, int64(8), c.Used())
}

func TestDeleteRemovesEntry(t *testing.T) {
	c := cache.New(10)
	c.Add(cache.BlockKey(0), make([]byte, 5))

	c.Delete(cache.BlockKey(0))

	_, ok := c.Get(cache.BlockKey(0))
	require.False(t, ok)
	require.Equal(t, int64(0), c.Used())
	require.Equal(t, int64(1), c.Stats().Deletes)
}

func TestFlushClearsEverythingAndCountsFlushes(t *testing.T) {
	c := cache.New(20)
	c.Add(cache.BlockKey(0), make([]byte, 5))
	c.Add(cache.BlockKey(1), make([]byte, 5))

	c.Flush()

	require.Equal(t, int64(0), c.Used())
	stats := c.Stats()
	require.Equal(t, int64(2), stats.Flushes)
	require.Equal(t, int64(10), stats.BytesReleased)

	_, ok := c.Get(cache.BlockKey(0))
	require.False(t, ok)
}
