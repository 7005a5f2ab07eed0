package cache

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheBasicOperations(t *testing.T) {
	c := New(Options{MaxSize: 10})

	// Get on empty cache
	_, found := c.Get("missing")
	assert.False(t, found)

	// Set and Get
	c.Set("a", "value-a")
	v, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "value-a", v)

	// Overwrite
	c.Set("a", "value-a2")
	v, _ = c.Get("a")
	assert.Equal(t, "value-a2", v)
	assert.Equal(t, 1, c.Len())

	// Delete
	c.Delete("a")
	_, found = c.Get("a")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())

	// Delete of missing key is a no-op
	c.Delete("missing")
}

func TestLRUCacheEviction(t *testing.T) {
	var evicted []string
	c := New(Options{
		MaxSize: 3,
		OnEvict: func(key string, value interface{}) {
			evicted = append(evicted, key)
		},
	})

	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3")
	assert.Equal(t, 3, c.Len())

	// Touch "a" so "b" becomes least recently used
	c.Get("a")

	c.Set("d", "4")
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)

	_, found := c.Get("b")
	assert.False(t, found)
	_, found = c.Get("a")
	assert.True(t, found)
}

func TestLRUCacheByteLimit(t *testing.T) {
	c := New(Options{MaxBytes: 20})

	c.Set("a", "0123456789") // 10 bytes
	c.Set("b", "0123456789") // 10 bytes, hits the limit, evicts "a"

	_, foundA := c.Get("a")
	_, foundB := c.Get("b")
	assert.False(t, foundA)
	assert.True(t, foundB)
	assert.LessOrEqual(t, c.CurrentBytes(), int64(20))
}

func TestLRUCacheClear(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("a", "1")
	c.Set("b", "2")

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.CurrentBytes())
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestLRUCacheSaveLoad(t *testing.T) {
	c := New(Options{MaxSize: 10})
	c.Set("one", "first")
	c.Set("two", "second")

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	restored := New(Options{MaxSize: 10})
	require.NoError(t, restored.Load(&buf))

	assert.Equal(t, 2, restored.Len())
	v, found := restored.Get("one")
	require.True(t, found)
	assert.Equal(t, "first", v)
	v, found = restored.Get("two")
	require.True(t, found)
	assert.Equal(t, "second", v)
}

func TestLRUCachePersistToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.msgpack")

	c := New(Options{MaxSize: 10})
	c.Set("key", "value")
	require.NoError(t, PersistToFile(c, path))

	restored := New(Options{MaxSize: 10})
	require.NoError(t, LoadFromFile(restored, path))
	v, found := restored.Get("key")
	require.True(t, found)
	assert.Equal(t, "value", v)

	// Missing file is not an error
	empty := New(Options{MaxSize: 10})
	require.NoError(t, LoadFromFile(empty, filepath.Join(t.TempDir(), "nope.msgpack")))
	assert.Equal(t, 0, empty.Len())
}

func TestStatsCache(t *testing.T) {
	c := NewStatsCache(Options{MaxSize: 10})

	c.Set("a", "1")

	_, found := c.Get("a")
	assert.True(t, found)
	_, found = c.Get("missing")
	assert.False(t, found)
	c.Get("a")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.HitCount)
	assert.Equal(t, int64(1), stats.MissCount)
	assert.Equal(t, 1, stats.Length)
	assert.InDelta(t, 2.0/3.0, c.HitRate(), 0.001)

	c.ResetStats()
	stats = c.Stats()
	assert.Equal(t, int64(0), stats.HitCount)
	assert.Equal(t, int64(0), stats.MissCount)
	assert.Equal(t, 0.0, c.HitRate())
}
