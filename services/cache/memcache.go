package cache

import (
	"errors"
	"time"

	apperrors "sjsage522/skinpricer/pkg/errors"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a memcache-backed cache. serverAddrs may list
// several servers; keys are spread across them.
func NewMemcacheService(serverAddrs ...string) *MemcacheService {
	client := memcache.New(serverAddrs...)
	client.Timeout = 500 * time.Millisecond
	return &MemcacheService{client: client}
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, wrap(key, "get", err)
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	err := m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
	return wrap(key, "set", err)
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	return wrap(key, "delete", m.client.Delete(key))
}

// IsMiss reports whether err means the key was not cached
func IsMiss(err error) bool {
	return errors.Is(err, memcache.ErrCacheMiss)
}

// wrap tags backend failures as cache errors; misses pass through unchanged
func wrap(key, op string, err error) error {
	if err == nil || IsMiss(err) {
		return err
	}
	return apperrors.NewCache(key, "memcache "+op+" failed", err)
}
