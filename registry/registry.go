// Package registry holds the set of message keys known to exist for a locale.
//
// The set is fetched from a catalog provider the first time it is needed and kept for
// the lifetime of the process. Failures never surface to callers: a provider that
// errors, panics or returns nothing yields an empty set, so every key is treated as
// unknown and lookups proceed normally.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pitabwire/util"

	"github.com/pitabwire/msgcacheperf/catalog"
)

var errNoKeys = errors.New("catalog returned no message keys")

// LoadHook observes every catalog fetch.
type LoadHook func(ctx context.Context, locale string, keys int, elapsed time.Duration, err error)

// Option configures a Registry.
type Option func(*options)

type options struct {
	loadHooks []LoadHook
}

// WithLoadHook registers a callback invoked after each catalog fetch.
func WithLoadHook(hook LoadHook) Option {
	return func(o *options) {
		if hook != nil {
			o.loadHooks = append(o.loadHooks, hook)
		}
	}
}

// Registry is the lazily built known-key set of a single locale.
type Registry struct {
	locale   string
	provider catalog.Provider
	opts     options

	once   sync.Once
	keys   map[string]struct{}
	loaded bool
	mu     sync.RWMutex
}

// New creates a Registry for locale. Nothing is fetched until the first lookup.
func New(locale string, provider catalog.Provider, opts ...Option) *Registry {
	r := &Registry{locale: locale, provider: provider}
	for _, opt := range opts {
		opt(&r.opts)
	}
	return r
}

// Locale returns the locale the registry serves.
func (r *Registry) Locale() string {
	return r.locale
}

// IsKnown reports whether key is a known message key. The first call loads the set;
// concurrent first callers wait for that single load.
func (r *Registry) IsKnown(ctx context.Context, key string) bool {
	keys := r.load(ctx)
	_, ok := keys[key]
	return ok
}

// Len returns the size of the known-key set, loading it if necessary.
func (r *Registry) Len(ctx context.Context) int {
	return len(r.load(ctx))
}

// Loaded reports whether the catalog has been fetched.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

func (r *Registry) load(ctx context.Context) map[string]struct{} {
	r.once.Do(func() {
		keys := r.fetch(context.WithoutCancel(ctx))

		r.mu.Lock()
		r.keys = keys
		r.loaded = true
		r.mu.Unlock()
	})

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys
}

func (r *Registry) fetch(ctx context.Context) map[string]struct{} {
	log := util.Log(ctx).WithField("locale", r.locale)
	start := time.Now()

	list, err := r.list(ctx)
	if err == nil && len(list) == 0 {
		err = errNoKeys
	}

	keys := make(map[string]struct{}, len(list))
	for _, k := range list {
		keys[k] = struct{}{}
	}

	elapsed := time.Since(start)
	for _, hook := range r.opts.loadHooks {
		hook(ctx, r.locale, len(keys), elapsed, err)
	}

	if err != nil {
		msg := "message key catalog unavailable, every key is treated as unknown"
		if len(keys) > 0 {
			msg = "message key catalog incomplete, missing keys are treated as unknown"
		}
		log.WithError(err).WithField("keys", len(keys)).Warn(msg)
		return keys
	}

	log.WithField("keys", len(keys)).WithField("elapsed", elapsed).Debug("message key catalog loaded")
	return keys
}

func (r *Registry) list(ctx context.Context) (keys []string, err error) {
	if r.provider == nil {
		return nil, errors.New("no catalog provider configured")
	}

	defer func() {
		if rec := recover(); rec != nil {
			keys = nil
			err = fmt.Errorf("catalog provider panicked: %v", rec)
		}
	}()

	return r.provider.MessageKeys(ctx, r.locale)
}
