package cache

import (
	"time"
)

const defaultMaxAge = time.Hour

// Option configures a Store backend.
type Option func(*Options)

// Options holds store connection configuration.
type Options struct {
	DSN    string
	Name   string
	MaxAge time.Duration
}

// NewOptions applies opts over the defaults.
func NewOptions(opts ...Option) *Options {
	o := &Options{MaxAge: defaultMaxAge}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithDSN(dsn string) Option {
	return func(o *Options) {
		o.DSN = dsn
	}
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithMaxAge sets the expiry used when Set is called without a ttl.
// Zero or negative keeps entries until deleted.
func WithMaxAge(maxAge time.Duration) Option {
	return func(o *Options) {
		o.MaxAge = maxAge
	}
}
