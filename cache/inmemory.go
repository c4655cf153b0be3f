package cache

import (
	"context"
	"sync"
	"time"
)

type inMemoryItem struct {
	value      []byte
	expiration time.Time
}

func (i *inMemoryItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// InMemoryCache is a process local Store.
type InMemoryCache struct {
	maxAge time.Duration

	mu    sync.RWMutex
	items map[string]*inMemoryItem

	closeOnce sync.Once
	stop      chan struct{}
}

const defaultCleanupInterval = 5 * time.Minute

// NewInMemoryCache creates an in-memory store. Expired entries are removed lazily on
// access and by a background sweep until Close is called.
func NewInMemoryCache(opts ...Option) *InMemoryCache {
	o := NewOptions(opts...)

	c := &InMemoryCache{
		maxAge: o.MaxAge,
		items:  map[string]*inMemoryItem{},
		stop:   make(chan struct{}),
	}
	go c.sweep(defaultCleanupInterval)

	return c
}

func (c *InMemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *InMemoryCache) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, item := range c.items {
		if item.expired(now) {
			delete(c.items, k)
		}
	}
}

func (c *InMemoryCache) lookup(key string) (*inMemoryItem, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if item.expired(time.Now()) {
		c.mu.Lock()
		if current, still := c.items[key]; still && current == item {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return item, true
}

func (c *InMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	item, ok := c.lookup(key)
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, true, nil
}

func (c *InMemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.maxAge
	}

	item := &inMemoryItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiration = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.lookup(key)
	return ok, nil
}

// Close stops the background sweep. It is safe to call more than once.
func (c *InMemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	return nil
}
