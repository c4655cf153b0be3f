package msgcacheperf

import (
	"context"
	"sync"

	"github.com/pitabwire/msgcacheperf/registry"
)

// Engines keeps one Engine per content language. The engines share the prefix
// matcher and observers and differ only in their known-key registry.
type Engines struct {
	locales *registry.Locales
	opts    []Option

	mu      sync.Mutex // serialises creation only
	engines sync.Map   // canonical locale -> *Engine
}

// NewEngines creates a lazily populated engine set. opts are applied to every engine
// after its registry is set.
func NewEngines(locales *registry.Locales, opts ...Option) *Engines {
	return &Engines{locales: locales, opts: opts}
}

// For returns the engine of locale, creating it on first use.
func (e *Engines) For(ctx context.Context, locale string) *Engine {
	key := registry.CanonicalLocale(locale)
	if eng, ok := e.engines.Load(key); ok {
		engine, _ := eng.(*Engine)
		return engine
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if eng, ok := e.engines.Load(key); ok {
		engine, _ := eng.(*Engine)
		return engine
	}

	opts := append([]Option{WithKeyRegistry(e.locales.For(key))}, e.opts...)
	engine := NewEngine(ctx, opts...)
	e.engines.Store(key, engine)
	return engine
}

// Locales exposes the registries backing the engines.
func (e *Engines) Locales() *registry.Locales {
	return e.locales
}
