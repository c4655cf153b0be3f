// Package cache stores tenant customised message texts. It is the expensive
// downstream that short-circuited message lookups never reach.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"
)

// ErrUnsupportedDSN is returned when no backend understands a cache DSN.
var ErrUnsupportedDSN = errors.New("unsupported cache dsn")

// Store is a byte oriented key value store with per entry expiry.
type Store interface {
	// Get returns the value of key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value. A ttl of zero uses the store's maximum age.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// MessageKey is the store key of a customised message.
func MessageKey(tenant, lang, key string) string {
	return strings.Join([]string{"msg", tenant, lang, key}, ":")
}

// Stats are the downstream round-trips observed by a Counting store.
type Stats struct {
	Gets   int64 `json:"gets"`
	Hits   int64 `json:"hits"`
	Errors int64 `json:"errors"`
}

// CountingStore wraps a Store and counts Get round-trips.
type CountingStore struct {
	Store

	gets   atomic.Int64
	hits   atomic.Int64
	errors atomic.Int64
}

// Counting wraps store so its lookups can be observed.
func Counting(store Store) *CountingStore {
	return &CountingStore{Store: store}
}

func (c *CountingStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.gets.Add(1)
	value, ok, err := c.Store.Get(ctx, key)
	switch {
	case err != nil:
		c.errors.Add(1)
	case ok:
		c.hits.Add(1)
	}
	return value, ok, err
}

// Stats returns the counters accumulated so far.
func (c *CountingStore) Stats() Stats {
	return Stats{Gets: c.gets.Load(), Hits: c.hits.Load(), Errors: c.errors.Load()}
}
