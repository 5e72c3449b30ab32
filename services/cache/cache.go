package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is not cached
var ErrMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache, ErrMiss when absent
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// Key builds a cache key from a namespace and free-form text such as an
// address. Memcache keys may not contain spaces, so the text is hashed.
func Key(namespace, text string) string {
	sum := sha1.Sum([]byte(text))
	return namespace + ":" + hex.EncodeToString(sum[:])
}
