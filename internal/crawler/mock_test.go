package crawler

import (
	"sync"
	"time"

	"sjsage522/makkaratutka/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	mu    sync.Mutex
	cache map[string][]byte
}

var _ cache.CacheService = (*MockCacheService)(nil)

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *MockCacheService) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}
