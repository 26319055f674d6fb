package cache

import (
	"encoding/json"
	"time"

	"sjsage522/skinpricer/internal/pricing"
	"sjsage522/skinpricer/logger"

	"github.com/google/uuid"
)

const (
	quoteKeyPrefix = "quote:"
	// memcache rejects longer keys
	maxKeyLength = 250
)

// QuoteCache stores price quotes keyed by canonical item path
type QuoteCache struct {
	svc CacheService
	ttl time.Duration
	log *logger.Logger
}

// NewQuoteCache wraps svc; quotes expire after ttl
func NewQuoteCache(svc CacheService, ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		svc: svc,
		ttl: ttl,
		log: logger.ForCache(),
	}
}

// Get returns the cached quote for path, if any. Backend errors count as a miss.
func (c *QuoteCache) Get(path string) (pricing.Quote, bool) {
	key := quoteKey(path)

	data, err := c.svc.Get(key)
	if err != nil {
		if !IsMiss(err) {
			c.log.Warn().Err(err).Str("key", key).Msg("Quote cache read failed")
		}
		return pricing.Quote{}, false
	}

	var q pricing.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cached quote")
		_ = c.svc.Delete(key)
		return pricing.Quote{}, false
	}
	return q, true
}

// Put caches q for path. Quotes without a variant price are not cached so
// that a later attempt reads the page again.
func (c *QuoteCache) Put(path string, q pricing.Quote) {
	if !q.Priced() || c.ttl <= 0 {
		return
	}

	data, err := json.Marshal(q)
	if err != nil {
		c.log.Error().Err(err).Msg("Failed to encode quote")
		return
	}

	key := quoteKey(path)
	if err := c.svc.Set(key, data, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Quote cache write failed")
	}
}

// quoteKey builds the cache key for path, hashing paths too long for memcache
func quoteKey(path string) string {
	key := quoteKeyPrefix + path
	if len(key) <= maxKeyLength {
		return key
	}
	return quoteKeyPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String()
}
