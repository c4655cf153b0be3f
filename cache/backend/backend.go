// Package backend opens the Store a cache DSN points at.
package backend

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pitabwire/msgcacheperf/cache"
	"github.com/pitabwire/msgcacheperf/cache/redis"
	"github.com/pitabwire/msgcacheperf/cache/valkey"
)

const (
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// Open returns the store for dsn. mem:// (or an empty dsn) is the in-memory store;
// redis:// and rediss:// use driver, which is redis unless set to valkey.
func Open(ctx context.Context, dsn string, driver string, opts ...cache.Option) (cache.Store, error) {
	if dsn == "" {
		return cache.NewInMemoryCache(opts...), nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cache.ErrUnsupportedDSN, err)
	}

	opts = append(opts, cache.WithDSN(dsn))

	switch strings.ToLower(u.Scheme) {
	case "mem", "memory":
		return cache.NewInMemoryCache(opts...), nil
	case "redis", "rediss":
		switch strings.ToLower(driver) {
		case "", DriverRedis:
			store, rErr := redis.New(ctx, opts...)
			if rErr != nil {
				return nil, rErr
			}
			return store, nil
		case DriverValkey:
			store, vErr := valkey.New(ctx, opts...)
			if vErr != nil {
				return nil, vErr
			}
			return store, nil
		default:
			return nil, fmt.Errorf("%w: unknown driver %q", cache.ErrUnsupportedDSN, driver)
		}
	default:
		return nil, fmt.Errorf("%w: scheme %q", cache.ErrUnsupportedDSN, u.Scheme)
	}
}
