package internal

import (
	"sjsage522/skinpricer/internal/fetch"
	"sjsage522/skinpricer/services/cache"
	"sjsage522/skinpricer/services/publisher"
	"sjsage522/skinpricer/services/store"
)

// Dependencies holds all service dependencies.
// Cache, Publisher and Store are nil when their backend is disabled.
type Dependencies struct {
	Fetcher   fetch.Fetcher
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     store.Store
}

// Close releases every initialized dependency
func (d *Dependencies) Close() {
	if d.Store != nil {
		d.Store.Close()
	}
	if d.Publisher != nil {
		_ = d.Publisher.Close()
	}
	if d.Fetcher != nil {
		_ = d.Fetcher.Close()
	}
}
