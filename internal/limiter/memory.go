package limiter

import (
	"context"
	"encoding/hex"
	"sync"
	"time"
)

// Memory is an in-process limiter for single-node deployments.
type Memory struct {
	mu       sync.Mutex
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
	entries  map[string]*memEntry
	swept    time.Time
}

type memEntry struct {
	fails        int
	blockedUntil time.Time
	updatedAt    time.Time
}

var _ Limiter = (*Memory)(nil)

// NewMemory constructs an in-process limiter with the same policy as PG.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
		entries:  make(map[string]*memEntry),
	}
}

func memKey(email string, ipHash []byte) string { return email + "|" + hex.EncodeToString(ipHash) }

// stale reports whether e no longer affects any decision: its failures fell out of the
// window and its block, if any, has ended.
func (m *Memory) stale(e *memEntry, now time.Time) bool {
	return now.Sub(e.updatedAt) > m.window && !e.blockedUntil.After(now)
}

// sweep drops stale entries, at most once per window. Callers hold mu.
func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.swept) < m.window {
		return
	}
	m.swept = now
	for k, e := range m.entries {
		if m.stale(e, now) {
			delete(m.entries, k)
		}
	}
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (m *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	k := memKey(email, ipHash)
	e, ok := m.entries[k]
	if !ok {
		return true, 0, nil
	}
	if e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	if m.stale(e, now) {
		delete(m.entries, k)
	}
	return true, 0, nil
}

// Success forgets the (email, ip) pair.
func (m *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, memKey(email, ipHash))
	return nil
}

// Failure records a failed attempt; the counter restarts once the window has passed.
func (m *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)
	k := memKey(email, ipHash)
	e, ok := m.entries[k]
	if !ok {
		e = &memEntry{}
		m.entries[k] = e
	}
	if ok && now.Sub(e.updatedAt) > m.window {
		e.fails = 0
	}
	e.fails++
	e.updatedAt = now

	if e.fails >= m.maxFails {
		e.blockedUntil = now.Add(m.blockFor)
		return true, m.blockFor, nil
	}
	return false, 0, nil
}
