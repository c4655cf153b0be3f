package msgcacheperf

import "context"

// Option configures an Engine.
type Option func(ctx context.Context, e *Engine)

// WithKeyRegistry sets the known-key set consulted first.
func WithKeyRegistry(r KeyRegistry) Option {
	return func(_ context.Context, e *Engine) {
		e.registry = r
	}
}

// WithPrefixMatcher sets the prefixes of keys that never exist.
func WithPrefixMatcher(m PrefixMatcher) Option {
	return func(_ context.Context, e *Engine) {
		e.matcher = m
	}
}

// WithSkipObserver adds an observer for skipped keys.
func WithSkipObserver(o SkipObserver) Option {
	return func(_ context.Context, e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithDecisionRecorder adds a recorder that sees every decision.
func WithDecisionRecorder(r DecisionRecorder) Option {
	return func(_ context.Context, e *Engine) {
		if r != nil {
			e.recorders = append(e.recorders, r)
		}
	}
}

// WithDebugOutput enables rendering of skipped keys after page output.
func WithDebugOutput(enabled bool) Option {
	return func(_ context.Context, e *Engine) {
		e.debug = enabled
	}
}
