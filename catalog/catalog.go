// Package catalog defines where the set of known message keys comes from.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Provider lists every message key defined for a locale.
type Provider interface {
	MessageKeys(ctx context.Context, locale string) ([]string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, locale string) ([]string, error)

func (f ProviderFunc) MessageKeys(ctx context.Context, locale string) ([]string, error) {
	return f(ctx, locale)
}

// Static serves fixed key lists. The "" entry is used for locales without their own list.
type Static map[string][]string

func (s Static) MessageKeys(_ context.Context, locale string) ([]string, error) {
	if keys, ok := s[locale]; ok {
		return keys, nil
	}
	return s[""], nil
}

type chain []Provider

// Chain merges the keys of several providers. Keys from providers that succeed are
// returned even when others fail; the failures are joined into the returned error.
func Chain(providers ...Provider) Provider {
	var c chain
	for _, p := range providers {
		if p != nil {
			c = append(c, p)
		}
	}
	return c
}

func (c chain) MessageKeys(ctx context.Context, locale string) ([]string, error) {
	var (
		keys []string
		errs []error
		seen = map[string]struct{}{}
	)

	for i, p := range c {
		got, err := p.MessageKeys(ctx, locale)
		if err != nil {
			errs = append(errs, fmt.Errorf("catalog provider %d: %w", i, err))
			continue
		}
		for _, k := range got {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}

	return keys, errors.Join(errs...)
}
