// Package messages resolves message keys the way a wiki host does: tenant
// customisations from the message store first, then the shipped catalog. Each
// lookup is first offered to the short-circuit engine of the tenant's content
// language, which can stop it before the store is touched.
package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pitabwire/util"

	"github.com/pitabwire/msgcacheperf"
	"github.com/pitabwire/msgcacheperf/cache"
)

// ErrNotFound is returned when a message key resolves to nothing.
var ErrNotFound = errors.New("message not found")

const (
	SourceOverride = "override"
	SourceCatalog  = "catalog"

	DefaultTenant = "default"
)

// Catalog returns shipped message texts.
type Catalog interface {
	Lookup(ctx context.Context, locale string, messageID string) (string, bool)
}

// Request identifies one message lookup.
type Request struct {
	Tenant   string
	Language string
	Key      string
}

// Message is a resolved message.
type Message struct {
	Key      string `json:"key"`
	Language string `json:"language"`
	Text     string `json:"text"`
	Source   string `json:"source"`
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithContentLanguage sets the language whose engine guards lookups. It defaults
// to the requested language.
func WithContentLanguage(lang string) Option {
	return func(r *Resolver) {
		r.contentLanguage = lang
	}
}

// WithTenantLanguages maps tenants to their own content language.
func WithTenantLanguages(languages map[string]string) Option {
	return func(r *Resolver) {
		r.tenantLanguages = languages
	}
}

// Resolver looks message keys up behind the short-circuit engine.
type Resolver struct {
	engines *msgcacheperf.Engines
	store   cache.Store
	catalog Catalog

	contentLanguage string
	tenantLanguages map[string]string
}

// NewResolver creates a Resolver. store and catalog may be nil.
func NewResolver(engines *msgcacheperf.Engines, store cache.Store, catalog Catalog, opts ...Option) *Resolver {
	r := &Resolver{engines: engines, store: store, catalog: catalog}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeKey applies the host key conventions: spaces become underscores and the
// first character is lower-cased.
func NormalizeKey(key string) string {
	key = strings.ReplaceAll(strings.TrimSpace(key), " ", "_")
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToLower(r)) + key[size:]
}

func (r *Resolver) engineLanguage(req Request) string {
	if lang, ok := r.tenantLanguages[req.Tenant]; ok && lang != "" {
		return lang
	}
	if r.contentLanguage != "" {
		return r.contentLanguage
	}
	return req.Language
}

// Get resolves req.
func (r *Resolver) Get(ctx context.Context, req Request) (Message, error) {
	if req.Tenant == "" {
		req.Tenant = DefaultTenant
	}
	key := NormalizeKey(req.Key)
	if key == "" {
		return Message{}, fmt.Errorf("%w: empty key", ErrNotFound)
	}

	if r.engines != nil {
		engine := r.engines.For(ctx, r.engineLanguage(req))
		if !engine.OnMessageCacheGet(ctx, &key) {
			util.Log(ctx).WithField("key", key).WithField("tenant", req.Tenant).Debug("message lookup short-circuited")
			return Message{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
	}

	msg := Message{Key: key, Language: req.Language}

	if r.store != nil {
		text, ok, err := r.store.Get(ctx, cache.MessageKey(req.Tenant, req.Language, key))
		if err != nil {
			util.Log(ctx).WithError(err).WithField("key", key).Warn("message store lookup failed")
		} else if ok {
			msg.Text, msg.Source = string(text), SourceOverride
			return msg, nil
		}
	}

	if r.catalog != nil {
		if text, ok := r.catalog.Lookup(ctx, req.Language, key); ok {
			msg.Text, msg.Source = text, SourceCatalog
			return msg, nil
		}
	}

	return Message{}, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// Customize stores a tenant override for a message.
func (r *Resolver) Customize(ctx context.Context, tenant, lang, key, text string, ttl time.Duration) error {
	if r.store == nil {
		return errors.New("no message store configured")
	}
	if tenant == "" {
		tenant = DefaultTenant
	}
	return r.store.Set(ctx, cache.MessageKey(tenant, lang, NormalizeKey(key)), []byte(text), ttl)
}
