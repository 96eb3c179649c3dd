package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow_HasAdd(t *testing.T) {
	w := New(4)
	assert.False(t, w.Has("a"))
	w.Add("a")
	assert.True(t, w.Has("a"))
	assert.Equal(t, 1, w.Len())

	w.Add("a")
	assert.Equal(t, 1, w.Len(), "re-adding is idempotent")
}

func TestWindow_CheckAndAdd(t *testing.T) {
	w := New(10)
	assert.True(t, w.CheckAndAdd("sig"))
	for i := 0; i < 5; i++ {
		assert.False(t, w.CheckAndAdd("sig"))
	}
	assert.Equal(t, 1, w.Len())
}

func TestWindow_BoundedMemory(t *testing.T) {
	w := New(10_000)
	require.Equal(t, 10_000, w.Capacity())

	for i := 0; i < 10_000+5_000; i++ {
		w.Add(fmt.Sprintf("key-%d", i))
		require.LessOrEqual(t, w.Len(), w.Capacity())
	}
	assert.True(t, w.Has("key-14999"), "newest key is retained")
	assert.False(t, w.Has("key-0"), "oldest key is evicted")
}

func TestWindow_EvictsOldestTenth(t *testing.T) {
	w := New(20)
	for i := 0; i < 20; i++ {
		w.Add(fmt.Sprintf("k%d", i))
	}
	require.Equal(t, 20, w.Len())

	w.Add("k20")
	assert.Equal(t, 19, w.Len())
	assert.False(t, w.Has("k0"))
	assert.False(t, w.Has("k1"))
	assert.True(t, w.Has("k2"))
	assert.True(t, w.Has("k20"))
}

func TestWindow_SmallCapacityEvictsOne(t *testing.T) {
	w := New(3)
	w.Add("a")
	w.Add("b")
	w.Add("c")
	w.Add("d")
	assert.Equal(t, 3, w.Len())
	assert.False(t, w.Has("a"))
	assert.True(t, w.Has("b"))
	assert.True(t, w.Has("d"))
}

func TestWindow_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Capacity())
	assert.Equal(t, DefaultCapacity, New(-5).Capacity())
}

func TestWindow_ConcurrentCheckAndAdd(t *testing.T) {
	w := New(1000)
	var inserted int64
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if w.CheckAndAdd(fmt.Sprintf("mint-%d", i)) {
					atomic.AddInt64(&inserted, 1)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), inserted, "each key is inserted exactly once")
}
