package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(DefaultMemoryConfig())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	_, ok := m.Get(ctx, "missing")
	require.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	value, ok := m.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), value)

	// Overwrite.
	require.NoError(t, m.Set(ctx, "k", []byte("v2"), time.Minute))
	value, ok = m.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("v2"), value)

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok = m.Get(ctx, "k")
	require.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 20*time.Millisecond))
	_, ok := m.Get(ctx, "k")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = m.Get(ctx, "k")
	require.False(t, ok)

	// An expired entry must not block SetIfAbsent.
	acquired, err := m.SetIfAbsent(ctx, "k", []byte("lock"), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestMemorySetIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	acquired, err := m.SetIfAbsent(ctx, "lock", []byte("a"), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	acquired, err = m.SetIfAbsent(ctx, "lock", []byte("b"), time.Minute)
	require.NoError(t, err)
	require.False(t, acquired)

	// The losing call must not overwrite the winner's value.
	value, ok := m.Get(ctx, "lock")
	require.True(t, ok)
	require.Equal(t, []byte("a"), value)

	// After release the lock can be taken again.
	require.NoError(t, m.Delete(ctx, "lock"))
	acquired, err = m.SetIfAbsent(ctx, "lock", []byte("c"), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestMemorySetIfAbsentMutualExclusion(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	const goroutines = 64

	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	start := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			acquired, err := m.SetIfAbsent(ctx, "lock", []byte("locked"), time.Minute)
			require.NoError(t, err)
			if acquired {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 1, winners)
}

func TestMemoryValueIsolation(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory(t)

	original := []byte("payload")
	require.NoError(t, m.Set(ctx, "k", original, time.Minute))

	// Mutating the slice handed in or out must not affect the cached value.
	original[0] = 'X'
	value, ok := m.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("payload"), value)

	value[0] = 'Y'
	again, ok := m.Get(ctx, "k")
	require.True(t, ok)
	require.Equal(t, []byte("payload"), again)
}
