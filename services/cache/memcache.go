package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
	prefix string
}

// NewMemcacheService creates a new memcache service. Every key is stored
// under prefix so several deployments can share a memcached.
func NewMemcacheService(serverAddr, prefix string) *MemcacheService {
	client := memcache.New(serverAddr)
	client.Timeout = 500 * time.Millisecond
	return &MemcacheService{
		client: client,
		prefix: prefix,
	}
}

// Ping checks that the memcached server is reachable
func (m *MemcacheService) Ping() error {
	return m.client.Ping()
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(m.prefix + key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        m.prefix + key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(m.prefix + key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
