package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// MemoryBackend is a map-backed Backend used in tests and local development.
// Physical expiry is not enforced; the PostCache freshness window is the
// logical authority anyway.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte

	// Down makes every operation fail, simulating an unreachable backend.
	Down bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

var errBackendDown = errors.New("cache backend down")

func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Down {
		return nil, false, errBackendDown
	}
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return errBackendDown
	}
	m.data[key] = value
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Down {
		return errBackendDown
	}
	delete(m.data, key)
	return nil
}

func (m *MemoryBackend) Ping(ctx context.Context) error {
	if m.Down {
		return errBackendDown
	}
	return nil
}

// Keys returns every stored key, fresh or not.
func (m *MemoryBackend) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := []string{}
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

// Contains reports whether any entry is stored under key, fresh or not.
func (m *MemoryBackend) Contains(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[key]
	return ok
}
