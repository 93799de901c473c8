package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bytesOf(n int) []byte {
	return make([]byte, n)
}

func TestAddThenGetReturnsSameValue(t *testing.T) {
	c := New(1024)
	buf := []byte("hello")
	require.True(t, c.Add("k", buf))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, buf, got)
}

func TestGetMissReturnsAbsent(t *testing.T) {
	c := New(1024)
	_, ok := c.Get("missing")
	assert.False(t, ok)
	assert.EqualValues(t, 1, c.Stats().Misses)
}

func TestAddRejectsOversizedBuffer(t *testing.T) {
	c := New(10)
	ok := c.Add("big", bytesOf(11))
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

// TestLRUEvictionOrder reproduces boundary scenario S6: capacity 30,
// add a,b,c (10 bytes each), get a (refreshing it to the front), add d
// -> b is evicted (the LRU tail after a was refreshed).
func TestLRUEvictionOrder(t *testing.T) {
	c := New(30)
	require.True(t, c.Add("a", bytesOf(10)))
	require.True(t, c.Add("b", bytesOf(10)))
	require.True(t, c.Add("c", bytesOf(10)))

	_, ok := c.Get("a")
	require.True(t, ok)

	require.True(t, c.Add("d", bytesOf(10)))

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")

	for _, k := range []string{"a", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, "%s should still be cached", k)
	}
}

func TestAddSameKeyIsLastWriteWins(t *testing.T) {
	c := New(1024)
	c.Add("k", []byte("first"))
	c.Add("k", []byte("second"))

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)
	assert.Equal(t, 1, c.Len())
}

func TestFlushClearsEverything(t *testing.T) {
	c := New(1024)
	c.Add("a", bytesOf(10))
	c.Add("b", bytesOf(10))
	c.Flush()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.EqualValues(t, 1, c.Stats().Flushes)
}

func TestDelete(t *testing.T) {
	c := New(1024)
	c.Add("a", bytesOf(10))
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.EqualValues(t, 1, c.Stats().Deletes)
}

// TestHashCollisionAliasesLastWriteWins exercises the documented
// "collisions are treated as aliases" rule by forcing two distinct keys
// onto the same hash bucket.
func TestHashCollisionAliasesLastWriteWins(t *testing.T) {
	c := New(1024)
	c.hashFn = func(string) uint64 { return 1 }

	c.Add("key-one", []byte("a"))
	c.Add("key-two", []byte("b"))

	assert.Equal(t, 1, c.Len())
	got, ok := c.Get("key-one")
	require.True(t, ok)
	assert.Equal(t, []byte("b"), got)
}
