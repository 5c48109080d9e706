package cmap

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testHash(k string) uint64 {
	return XXHash(k)
}

func TestAddAndGet(t *testing.T) {
	m := New[string, int](SmallShardCount, testHash)
	assert.True(t, m.Add("a", 1))
	assert.False(t, m.Add("a", 2))
	v, ok := m.shardFor("a").get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestGetOrWaitProducer(t *testing.T) {
	m := New[string, int](SmallShardCount, testHash)
	val, wait, produce := m.GetOrWait("x")
	assert.True(t, produce)
	assert.Nil(t, wait)
	assert.Equal(t, 0, val)
	m.Set("x", 42)
	assert.Equal(t, 42, m.Get("x"))
}

func TestGetOrWaitWaiter(t *testing.T) {
	m := New[string, int](SmallShardCount, testHash)
	done := make(chan struct{})
	m.GetOrWait("y") // claim production here so the goroutine below waits
	go func() {
		_, wait, produce := m.GetOrWait("y")
		assert.False(t, produce)
		<-wait
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	m.Set("y", 7)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was never woken")
	}
	assert.Equal(t, 7, m.Get("y"))
}

func TestRangeSkipsPending(t *testing.T) {
	m := New[string, int](SmallShardCount, testHash)
	m.Add("a", 1)
	m.GetOrWait("b") // pending, never produced
	seen := map[string]int{}
	m.Range(func(k string, v int) { seen[k] = v })
	assert.Equal(t, map[string]int{"a": 1}, seen)
}

func TestAddOrGet(t *testing.T) {
	m := New[string, int](SmallShardCount, testHash)
	calls := 0
	f := func() int { calls++; return 5 }
	v, first := m.AddOrGet("k", f)
	assert.True(t, first)
	assert.Equal(t, 5, v)
	v2, second := m.AddOrGet("k", f)
	assert.False(t, second)
	assert.Equal(t, 5, v2)
	assert.Equal(t, 1, calls)
}

func BenchmarkAdd(b *testing.B) {
	m := New[string, int](DefaultShardCount, testHash)
	for i := 0; i < b.N; i++ {
		m.Add(strconv.Itoa(i), i)
	}
}
