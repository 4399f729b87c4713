package cacheengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("foo", []byte("bar"), 0)
	v, ok := c.Get("foo")
	require.True(t, ok)
	assert.Equal(t, []byte("bar"), v)
}

func TestGetAfterDeleteIsAbsent(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("foo", []byte("bar"), 0)
	assert.True(t, c.Delete("foo"))
	_, ok := c.Get("foo")
	assert.False(t, ok)
}

func TestDeleteReportsPresence(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	assert.False(t, c.Delete("missing"))
	c.Put("foo", []byte("bar"), 0)
	assert.True(t, c.Delete("foo"))
	assert.False(t, c.Delete("foo"))
}

func TestOverwriteReturnsLatestValue(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("foo", []byte("v1"), 0)
	c.Put("foo", []byte("v2"), 0)
	v, ok := c.Get("foo")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
}

func TestLRUEviction(t *testing.T) {
	c := New(3, 0)
	defer c.Stop()

	c.Put("a", []byte("A"), 0)
	c.Put("b", []byte("B"), 0)
	c.Put("c", []byte("C"), 0)

	// Touch "a" so "b" becomes the least-recently-used entry.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", []byte("D"), 0)

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted as LRU")

	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "%s should still be present", key)
	}
}

func TestZeroCapacityEvictsImmediately(t *testing.T) {
	c := New(0, 0)
	defer c.Stop()

	c.Put("a", []byte("A"), 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestTTLExpiryOnRead(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("a", []byte("A"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestOverwriteWithLongerTTLSurvivesOriginalDeadline(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("a", []byte("Apple"), 50*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	c.Put("a", []byte("Apricot"), 1000*time.Millisecond)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("Apricot"), v)

	time.Sleep(200 * time.Millisecond)
	v, ok = c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("Apricot"), v)
}

func TestSweeperReclaimsExpiredEntriesWithoutRead(t *testing.T) {
	c := New(3, 50*time.Millisecond)
	defer c.Stop()

	c.Put("a", []byte("A"), 50*time.Millisecond)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if c.Size() == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("sweeper did not reclaim expired entry within deadline")
}

func TestSweeperStopsOnStop(t *testing.T) {
	c := New(3, 10*time.Millisecond)
	c.Stop()
	c.Stop() // idempotent
}

func TestHitsAndMissesCountExactlyOncePerGet(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("a", []byte("A"), 0)

	_, _ = c.Get("a")
	assert.EqualValues(t, 1, c.Hits())
	assert.EqualValues(t, 0, c.Misses())

	_, _ = c.Get("missing")
	assert.EqualValues(t, 1, c.Hits())
	assert.EqualValues(t, 1, c.Misses())
}

func TestSizeNeverExceedsCapacityAfterPut(t *testing.T) {
	c := New(5, 0)
	defer c.Stop()

	for i := 0; i < 50; i++ {
		c.Put(string(rune('a'+i%26)), []byte{byte(i)}, 0)
		assert.LessOrEqual(t, c.Size(), c.Capacity())
	}
}

func TestKeysIgnoresExpiryAndReturnsMRUOrder(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("a", []byte("A"), time.Millisecond)
	c.Put("b", []byte("B"), 0)
	time.Sleep(5 * time.Millisecond)

	keys := c.Keys()
	assert.Equal(t, []string{"b", "a"}, keys)
}

func TestContainsIgnoresExpiry(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("a", []byte("A"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	assert.True(t, c.Contains("a"))
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestClearRemovesEverything(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	c.Put("a", []byte("A"), 0)
	c.Put("b", []byte("B"), 0)
	c.Clear()

	assert.Equal(t, 0, c.Size())
	assert.Empty(t, c.Keys())
}

func TestValuesAreCopiedOnPutAndGet(t *testing.T) {
	c := New(10, 0)
	defer c.Stop()

	v := []byte("mutable")
	c.Put("a", v, 0)
	v[0] = 'X'

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("mutable"), got)

	got[0] = 'Y'
	got2, _ := c.Get("a")
	assert.Equal(t, []byte("mutable"), got2)
}
