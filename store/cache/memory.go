package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryConfig holds the configuration for the in-process memory cache.
type MemoryConfig struct {
	// CleanupInterval is how often expired entries are swept. Expired entries
	// are also dropped lazily on Get, so the sweep only bounds memory growth.
	CleanupInterval time.Duration
}

// DefaultMemoryConfig returns the default memory cache configuration.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		CleanupInterval: time.Minute,
	}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process Cache backed by a mutex-guarded map.
// SetIfAbsent atomicity holds per process; use the redis backend when more
// than one server instance shares the cache.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	done     chan struct{}
	closeOne sync.Once
}

// NewMemory creates a new memory cache and starts its cleanup goroutine.
func NewMemory(config MemoryConfig) *Memory {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultMemoryConfig().CleanupInterval
	}

	m := &Memory{
		entries: make(map[string]*memoryEntry),
		done:    make(chan struct{}),
	}
	go m.cleanupLoop(config.CleanupInterval)
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(m.entries, key)
		return nil, false
	}

	// Copy so callers cannot mutate the cached bytes.
	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = newEntry(value, ttl)
	return nil
}

func (m *Memory) SetIfAbsent(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && !e.expired(time.Now()) {
		return false, nil
	}
	m.entries[key] = newEntry(value, ttl)
	return true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (m *Memory) Close() error {
	m.closeOne.Do(func() {
		close(m.done)
	})
	return nil
}

func newEntry(value []byte, ttl time.Duration) *memoryEntry {
	stored := make([]byte, len(value))
	copy(stored, value)

	e := &memoryEntry{value: stored}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	return e
}

func (m *Memory) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictExpired()
		case <-m.done:
			return
		}
	}
}

func (m *Memory) evictExpired() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}
