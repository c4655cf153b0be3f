// Package msgcacheperf short-circuits message lookups for keys that cannot exist.
//
// A lookup for a key is answered from two sources: the set of message keys the
// localisation catalog defines for the content language, and a list of literal
// prefixes of keys that are known never to be customised. Known keys always proceed,
// keys that match a prefix are reported missing without touching the downstream
// cache, and everything else proceeds normally.
package msgcacheperf

import (
	"context"
	"fmt"
	"io"

	"github.com/pitabwire/util"
)

// Decision is the outcome of inspecting a message key.
type Decision int

const (
	// Unknown means nothing can be said; the normal lookup path runs.
	Unknown Decision = iota
	// Exists means the key is defined by the catalog.
	Exists
	// DoesNotExist means the key can be reported missing without a lookup.
	DoesNotExist
)

func (d Decision) String() string {
	switch d {
	case Exists:
		return "exists"
	case DoesNotExist:
		return "does_not_exist"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Continue reports whether the host lookup should proceed.
func (d Decision) Continue() bool {
	return d != DoesNotExist
}

// KeyRegistry answers membership in the known-key set.
type KeyRegistry interface {
	IsKnown(ctx context.Context, key string) bool
}

// PrefixMatcher answers whether a key starts with a configured literal prefix.
type PrefixMatcher interface {
	Matches(text string) bool
}

// SkipObserver is notified of every key reported as missing.
type SkipObserver interface {
	OnSkipped(ctx context.Context, key string)
}

// SkipObserverFunc adapts a function to SkipObserver.
type SkipObserverFunc func(ctx context.Context, key string)

func (f SkipObserverFunc) OnSkipped(ctx context.Context, key string) {
	f(ctx, key)
}

// DecisionRecorder receives every decision, typically for metrics.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, decision string)
}

// Engine decides, per key, whether a message lookup may be skipped.
type Engine struct {
	registry  KeyRegistry
	matcher   PrefixMatcher
	observers []SkipObserver
	recorders []DecisionRecorder
	debug     bool
}

// NewEngine creates an Engine. Without a registry every key is unknown to the
// catalog; without a matcher nothing is ever skipped.
func NewEngine(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(ctx, e)
	}
	return e
}

// Decide classifies key. Catalog membership takes precedence over prefix matches.
func (e *Engine) Decide(ctx context.Context, key string) Decision {
	d := e.decide(ctx, key)

	e.record(ctx, key, d)
	if d == DoesNotExist {
		e.notify(ctx, key)
	}
	return d
}

func (e *Engine) decide(ctx context.Context, key string) (d Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			util.Log(ctx).WithField("key", key).WithField("panic", rec).
				Error("message key decision failed, treating key as unknown")
			d = Unknown
		}
	}()

	if e.registry != nil && e.registry.IsKnown(ctx, key) {
		return Exists
	}
	if e.matcher != nil && e.matcher.Matches(key) {
		return DoesNotExist
	}
	return Unknown
}

func (e *Engine) record(ctx context.Context, key string, d Decision) {
	for _, r := range e.recorders {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					util.Log(ctx).WithField("key", key).WithField("panic", rec).
						Warn("decision recorder failed")
				}
			}()
			r.RecordDecision(ctx, d.String())
		}()
	}
}

func (e *Engine) notify(ctx context.Context, key string) {
	for _, o := range e.observers {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					util.Log(ctx).WithField("key", key).WithField("panic", rec).
						Warn("skip observer failed")
				}
			}()
			o.OnSkipped(ctx, key)
		}()
	}
}

// OnMessageCacheGet is the lookup hook. It returns false when the lookup must stop
// because the key does not exist, and true when the host should continue.
func (e *Engine) OnMessageCacheGet(ctx context.Context, key *string) bool {
	if key == nil {
		return true
	}
	return e.Decide(ctx, *key).Continue()
}

// DebugOutput reports whether skipped keys are rendered at the end of a page.
func (e *Engine) DebugOutput() bool {
	return e.debug
}

// AfterFinalPageOutput appends the skipped keys recorded for the unit of work in ctx
// to w. Nothing is written for API requests or when debug output is disabled.
func (e *Engine) AfterFinalPageOutput(ctx context.Context, w io.Writer, api bool) error {
	if !e.debug || api {
		return nil
	}
	return RenderSkipped(w, SkippedLogFromContext(ctx))
}
