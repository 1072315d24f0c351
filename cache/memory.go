package cache

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is a process-local Store for the in-memory server and tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return "", nil
	}
	if entry.expired(time.Now()) {
		delete(m.entries, key)
		return "", nil
	}
	return entry.value, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		str = fmt.Sprint(v)
	}
	entry := memoryEntry{value: str}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// SetNX stores value only when key is absent or expired.
func (m *MemoryCache) SetNX(_ context.Context, key, value string, expiration time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[key]; ok && !entry.expired(time.Now()) {
		return false
	}
	entry := memoryEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}
	m.entries[key] = entry
	return true
}

// CompareAndDelete removes key only while it still holds value.
func (m *MemoryCache) CompareAndDelete(_ context.Context, key, value string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[key]; ok && entry.value == value {
		delete(m.entries, key)
		return true
	}
	return false
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// DeleteAll removes keys matching a Redis-style glob pattern.
func (m *MemoryCache) DeleteAll(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}
