package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Lock(ctx, "order:1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, m.locks)
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	m := NewKeyedMutex()
	release, err := m.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = m.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()
	assert.Empty(t, m.locks)
}

func TestLockAll_DedupAndIndependentKeys(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	release, err := LockAll(ctx, m, "b", "a", "b", "")
	require.NoError(t, err)
	assert.Len(t, m.locks, 2)

	other, err := m.Lock(ctx, "c")
	require.NoError(t, err)
	other()

	release()
	assert.Empty(t, m.locks)
}

func TestAcquire_ReentrantThroughContext(t *testing.T) {
	m := NewKeyedMutex()

	ctx, release, err := Acquire(context.Background(), m, "purchase_order:1", "product:a")
	require.NoError(t, err)
	assert.True(t, Holds(ctx, "product:a"))

	// Nested acquisition of a held key returns immediately.
	inner, innerRelease, err := Acquire(ctx, m, "product:a")
	require.NoError(t, err)
	innerRelease()
	assert.True(t, Holds(inner, "purchase_order:1"))

	// A new key is still locked for real.
	inner, innerRelease, err = Acquire(ctx, m, "product:b")
	require.NoError(t, err)
	assert.True(t, Holds(inner, "product:a"))
	assert.True(t, Holds(inner, "product:b"))
	assert.False(t, Holds(ctx, "product:b"))
	innerRelease()

	release()

	// Everything is free again.
	other, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, again, err := Acquire(other, m, "product:a", "purchase_order:1")
	require.NoError(t, err)
	again()
}
