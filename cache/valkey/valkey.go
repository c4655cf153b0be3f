package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/pitabwire/msgcacheperf/cache"
)

// Cache is a Valkey-backed store using the official Valkey client.
type Cache struct {
	client valkey.Client
	maxAge time.Duration
}

const connectionTimeout = 5 * time.Second

// New connects to the DSN in the options and verifies the connection with a PING.
func New(ctx context.Context, opts ...cache.Option) (*Cache, error) {
	o := cache.NewOptions(opts...)

	valkeyOpts, err := valkey.ParseURL(o.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse valkey dsn: %w", err)
	}
	if o.Name != "" {
		valkeyOpts.ClientName = o.Name
	}

	client, err := valkey.NewClient(valkeyOpts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if pingErr := client.Do(pingCtx, client.B().Ping().Build()).Error(); pingErr != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", pingErr)
	}

	return &Cache{client: client, maxAge: o.MaxAge}, nil
}

func (vc *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	resp := vc.client.Do(ctx, vc.client.B().Get().Key(key).Build())

	val, err := resp.AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return val, true, nil
}

func (vc *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = vc.maxAge
	}

	set := vc.client.B().Set().Key(key).Value(valkey.BinaryString(value))
	if ttl > 0 {
		// PX keeps sub-second ttls intact.
		return vc.client.Do(ctx, set.PxMilliseconds(max(ttl.Milliseconds(), 1)).Build()).Error()
	}
	return vc.client.Do(ctx, set.Build()).Error()
}

func (vc *Cache) Delete(ctx context.Context, key string) error {
	return vc.client.Do(ctx, vc.client.B().Del().Key(key).Build()).Error()
}

func (vc *Cache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := vc.client.Do(ctx, vc.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (vc *Cache) Close() error {
	vc.client.Close()
	return nil
}
