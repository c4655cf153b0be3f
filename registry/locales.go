package registry

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"

	"github.com/pitabwire/msgcacheperf/catalog"
)

// Submitter runs tasks in the background. workerpool.WorkerPool satisfies it.
type Submitter interface {
	Submit(ctx context.Context, task func()) error
}

// Locales hands out one Registry per locale, creating each on first use.
type Locales struct {
	provider catalog.Provider
	opts     []Option

	mu         sync.Mutex // serialises creation only
	registries sync.Map   // canonical locale -> *Registry
}

// NewLocales creates an empty per-locale registry set backed by provider.
func NewLocales(provider catalog.Provider, opts ...Option) *Locales {
	return &Locales{provider: provider, opts: opts}
}

// CanonicalLocale normalises a locale tag so that spelling variants share a registry.
// Tags that do not parse are lower-cased and used as is.
func CanonicalLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	tag, err := language.Parse(locale)
	if err != nil {
		return strings.ToLower(locale)
	}
	return tag.String()
}

// For returns the registry of locale.
func (l *Locales) For(locale string) *Registry {
	key := CanonicalLocale(locale)
	if r, ok := l.registries.Load(key); ok {
		reg, _ := r.(*Registry)
		return reg
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.registries.Load(key); ok {
		reg, _ := r.(*Registry)
		return reg
	}

	reg := New(key, l.provider, l.opts...)
	l.registries.Store(key, reg)
	return reg
}

// Snapshot describes one registry for status reporting.
type Snapshot struct {
	Locale string `json:"locale"`
	Loaded bool   `json:"loaded"`
	Keys   int    `json:"keys"`
}

// Snapshots lists the registries created so far. Registries that have not loaded yet
// are reported without triggering a load.
func (l *Locales) Snapshots(ctx context.Context) []Snapshot {
	var out []Snapshot
	l.registries.Range(func(_, value any) bool {
		reg, _ := value.(*Registry)
		snap := Snapshot{Locale: reg.Locale(), Loaded: reg.Loaded()}
		if snap.Loaded {
			snap.Keys = reg.Len(ctx)
		}
		out = append(out, snap)
		return true
	})
	return out
}

// Warm loads the registries of locales concurrently and waits for all of them.
// Tasks the pool rejects because it is saturated run on the calling goroutine.
func (l *Locales) Warm(ctx context.Context, pool Submitter, locales ...string) error {
	var wg sync.WaitGroup

	for _, locale := range locales {
		reg := l.For(locale)
		task := func() {
			defer wg.Done()
			reg.Len(ctx)
		}

		wg.Add(1)
		if pool == nil {
			task()
			continue
		}

		err := pool.Submit(ctx, task)
		switch {
		case err == nil:
		case errors.Is(err, ants.ErrPoolOverload):
			task()
		default:
			wg.Done()
			wg.Wait()
			util.Log(ctx).WithError(err).WithField("locale", reg.Locale()).Warn("could not schedule registry warm-up")
			return err
		}
	}

	wg.Wait()
	return nil
}
