package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, time.Minute), mr
}

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "session-1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxSeen)
}

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	exerciseMutualExclusion(t, l)
	assert.Equal(t, 0, l.Len())
}

func TestLocal_TimeoutAndIndependentKeys(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	other, err := l.Lock(context.Background(), "b")
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a")
	assert.ErrorIs(t, err, ErrBusy)

	unlock()
	unlock() // second call is a no-op
	assert.Equal(t, 0, l.Len())
}

func TestRedis_MutualExclusion(t *testing.T) {
	r, _ := setupRedis(t)
	exerciseMutualExclusion(t, r)
}

func TestRedis_TimeoutAndRelease(t *testing.T) {
	r, mr := setupRedis(t)
	unlock, err := r.Lock(context.Background(), "s")
	require.NoError(t, err)
	assert.True(t, mr.Exists("narrator:lock:s"))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_, err = r.Lock(ctx, "s")
	assert.ErrorIs(t, err, ErrBusy)

	unlock()
	assert.False(t, mr.Exists("narrator:lock:s"))
}

func TestRedis_ReleaseKeepsForeignLease(t *testing.T) {
	r, mr := setupRedis(t)
	unlock, err := r.Lock(context.Background(), "s")
	require.NoError(t, err)

	// Lease expired and another holder took it.
	require.NoError(t, mr.Set("narrator:lock:s", "someone-else"))
	unlock()
	got, err := mr.Get("narrator:lock:s")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
