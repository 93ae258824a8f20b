// Package keycache caches SM4 data keys on two independent tracks:
// session（按 trace id）与 system（按时间窗口）。
// Creation is single-flighted so one trace id never wraps two SM4 keys,
// eviction is FIFO and elected by a CAS flag so it never blocks writers.
package keycache

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/geekfrog/securelog-ecc/conf"
	"github.com/geekfrog/securelog-ecc/errlist"
)

// KeyInfo is the immutable value of one cache slot. The three fields are
// produced together inside the single flight, readers can never observe a
// torn pair of SM4 key and SM2 ciphertext.
type KeyInfo struct {
	Sm4Key          []byte
	Sm2EncryptedKey []byte
	CreatedAtMillis int64
}

// NewKeyFunc produces a fresh SM4 key and its SM2 wrapped form.
type NewKeyFunc func() (sm4Key, sm2Wrapped []byte, err error)

// Manager owns the two tracks.
type Manager struct {
	session *track
	system  *track
	newKey  NewKeyFunc
}

type track struct {
	mu       sync.Mutex
	entries  map[string]*KeyInfo
	queue    []string
	capacity int64 // atomic, resizable at runtime
	buffer   float64
	evicting int32
	group    singleflight.Group
}

// public func

// NewManager builds a Manager from the cache section of cfg.
func NewManager(cfg *conf.Snapshot, newKey NewKeyFunc) *Manager {
	return &Manager{
		session: newTrack(cfg.SessionCacheSize, cfg.SessionCacheBuffer),
		system:  newTrack(cfg.SystemCacheSize, cfg.SystemCacheBuffer),
		newKey:  newKey,
	}
}

// SessionKey returns the key info for traceID, creating it on first use.
func (I *Manager) SessionKey(traceID string) (*KeyInfo, error) {
	return I.session.getOrCreate(traceID, I.newKey)
}

// SystemKey returns the key info for a system time window id.
func (I *Manager) SystemKey(windowID string) (*KeyInfo, error) {
	return I.system.getOrCreate(windowID, I.newKey)
}

// ClearSession drops every cached session key.
func (I *Manager) ClearSession() {
	I.session.clear()
}

// ClearSystem drops every cached system key.
func (I *Manager) ClearSystem() {
	I.system.clear()
}

// SetSessionCapacity resizes the session track.
func (I *Manager) SetSessionCapacity(n int) error {
	return I.session.setCapacity(n)
}

// SetSystemCapacity resizes the system track.
func (I *Manager) SetSystemCapacity(n int) error {
	return I.system.setCapacity(n)
}

// SessionLen reports the current session track size.
func (I *Manager) SessionLen() int {
	return I.session.size()
}

// SystemLen reports the current system track size.
func (I *Manager) SystemLen() int {
	return I.system.size()
}

// SystemWindowID renders the current system identifier:
// system_{floor(nowMillis / (intervalMinutes*60000))}.
// 同一窗口内的系统日志共享一把密钥。
func SystemWindowID(intervalMinutes int) string {
	return SystemWindowIDAt(time.Now().UnixMilli(), intervalMinutes)
}

// SystemWindowIDAt is SystemWindowID for an explicit clock reading.
func SystemWindowIDAt(nowMillis int64, intervalMinutes int) string {
	interval := int64(intervalMinutes) * conf.MillisPerMinute
	return "system_" + strconv.FormatInt(nowMillis/interval, 10)
}

// private func

func newTrack(capacity int, buffer float64) *track {
	return &track{
		entries:  make(map[string]*KeyInfo, 64),
		capacity: int64(capacity),
		buffer:   buffer,
	}
}

func (I *track) getOrCreate(id string, newKey NewKeyFunc) (*KeyInfo, error) {
	I.mu.Lock()
	if info, ok := I.entries[id]; ok {
		I.mu.Unlock()
		return info, nil
	}
	I.mu.Unlock()

	v, err, _ := I.group.Do(id, func() (interface{}, error) {
		I.mu.Lock()
		if info, ok := I.entries[id]; ok {
			I.mu.Unlock()
			return info, nil
		}
		I.mu.Unlock()

		sm4Key, wrapped, err := newKey()
		if err != nil {
			return nil, err
		}
		info := &KeyInfo{
			Sm4Key:          sm4Key,
			Sm2EncryptedKey: wrapped,
			CreatedAtMillis: time.Now().UnixMilli(),
		}
		I.mu.Lock()
		I.entries[id] = info
		I.queue = append(I.queue, id)
		I.mu.Unlock()
		return info, nil
	})
	if err != nil {
		return nil, err
	}
	I.maybeEvict()
	return v.(*KeyInfo), nil
}

// maybeEvict elects at most one goroutine to drain the FIFO head down to
// capacity*(1-buffer). Entries whose map slot was already cleared are
// skipped, the map and the queue are allowed to disagree transiently.
func (I *track) maybeEvict() {
	capacity := int(atomic.LoadInt64(&I.capacity))
	if I.size() < capacity {
		return
	}
	if !atomic.CompareAndSwapInt32(&I.evicting, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&I.evicting, 0)

	target := int(float64(capacity) * (1 - I.buffer))
	if target < 0 {
		target = 0
	}
	I.mu.Lock()
	for len(I.entries) > target && len(I.queue) > 0 {
		id := I.queue[0]
		I.queue = I.queue[1:]
		delete(I.entries, id)
	}
	I.mu.Unlock()
}

func (I *track) clear() {
	I.mu.Lock()
	I.entries = make(map[string]*KeyInfo, 64)
	I.queue = nil
	I.mu.Unlock()
}

func (I *track) setCapacity(n int) error {
	if n <= 0 {
		return errlist.ERR_CACHE_SIZE_INVALID
	}
	atomic.StoreInt64(&I.capacity, int64(n))
	return nil
}

func (I *track) size() int {
	I.mu.Lock()
	n := len(I.entries)
	I.mu.Unlock()
	return n
}
