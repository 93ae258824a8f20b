package keycache

import (
	"crypto/rand"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/geekfrog/securelog-ecc/conf"
	"github.com/geekfrog/securelog-ecc/errlist"
)

func countingKeyFunc(counter *int64) NewKeyFunc {
	return func() (sm4Key, sm2Wrapped []byte, err error) {
		atomic.AddInt64(counter, 1)
		key := make([]byte, 16)
		if _, err := rand.Read(key); err != nil {
			return nil, nil, err
		}
		wrapped := append([]byte("wrapped:"), key...)
		return key, wrapped, nil
	}
}

func newTestManager(t *testing.T, sessionSize int, buffer string, counter *int64) *Manager {
	t.Helper()
	m := conf.NewManager()
	m.Set(conf.KeySessionCacheSize, fmt.Sprintf("%d", sessionSize))
	m.Set(conf.KeySessionCacheBuffer, buffer)
	return NewManager(conf.NewSnapshot(m), countingKeyFunc(counter))
}

func TestSessionKeyReused(t *testing.T) {
	var calls int64
	mgr := newTestManager(t, 100, "0.1", &calls)

	id := uuid.NewString()
	first, err := mgr.SessionKey(id)
	require.NoError(t, err)
	second, err := mgr.SessionKey(id)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.EqualValues(t, 1, atomic.LoadInt64(&calls))
}

func TestSessionAndSystemTracksIndependent(t *testing.T) {
	var calls int64
	mgr := newTestManager(t, 100, "0.1", &calls)

	id := uuid.NewString()
	si, err := mgr.SessionKey(id)
	require.NoError(t, err)
	yi, err := mgr.SystemKey(id)
	require.NoError(t, err)
	require.NotSame(t, si, yi)
	require.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

// 同一 id 并发取键只产生一把
func TestSessionKeySingleFlight(t *testing.T) {
	var calls int64
	mgr := newTestManager(t, 1000, "0.1", &calls)

	id := uuid.NewString()
	var wg sync.WaitGroup
	results := make([]*KeyInfo, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			info, err := mgr.SessionKey(id)
			if err == nil {
				results[n] = info
			}
		}(i)
	}
	wg.Wait()
	require.EqualValues(t, 1, atomic.LoadInt64(&calls))
	for _, r := range results {
		require.Same(t, results[0], r)
	}
}

func TestEvictionKeepsSizeBounded(t *testing.T) {
	var calls int64
	mgr := newTestManager(t, 10, "0.2", &calls)

	for i := 0; i < 20; i++ {
		_, err := mgr.SessionKey(fmt.Sprintf("id%d", i))
		require.NoError(t, err)
	}
	require.LessOrEqual(t, mgr.SessionLen(), 10)
	require.EqualValues(t, 20, atomic.LoadInt64(&calls))

	// 最新的 id 仍在缓存，最老的已被淘汰
	_, err := mgr.SessionKey("id19")
	require.NoError(t, err)
	require.EqualValues(t, 20, atomic.LoadInt64(&calls))
	_, err = mgr.SessionKey("id0")
	require.NoError(t, err)
	require.EqualValues(t, 21, atomic.LoadInt64(&calls))
}

func TestClear(t *testing.T) {
	var calls int64
	mgr := newTestManager(t, 100, "0.1", &calls)
	_, err := mgr.SessionKey("a")
	require.NoError(t, err)
	mgr.ClearSession()
	require.Equal(t, 0, mgr.SessionLen())
	_, err = mgr.SessionKey("a")
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt64(&calls))
}

func TestSetCapacityValidation(t *testing.T) {
	var calls int64
	mgr := newTestManager(t, 100, "0.1", &calls)
	require.Equal(t, errlist.ERR_CACHE_SIZE_INVALID, mgr.SetSessionCapacity(0))
	require.Equal(t, errlist.ERR_CACHE_SIZE_INVALID, mgr.SetSystemCapacity(-5))
	require.NoError(t, mgr.SetSessionCapacity(5))
}

func TestSystemWindowID(t *testing.T) {
	require.Equal(t, "system_0", SystemWindowIDAt(0, 15))
	require.Equal(t, "system_1", SystemWindowIDAt(15*60*1000, 15))
	require.Equal(t, "system_2", SystemWindowIDAt(30*60*1000+5, 15))
	// 同一窗口内 id 不变
	require.Equal(t, SystemWindowIDAt(1000, 15), SystemWindowIDAt(14*60*1000, 15))
}
