// Package server exposes message resolution over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pitabwire/msgcacheperf"
	"github.com/pitabwire/msgcacheperf/cache"
	"github.com/pitabwire/msgcacheperf/localization"
	lhttp "github.com/pitabwire/msgcacheperf/localization/interceptors/http"
	"github.com/pitabwire/msgcacheperf/messages"
	"github.com/pitabwire/msgcacheperf/registry"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultReadHeaderTimeout is the timeout for reading request headers to prevent Slowloris attacks.
	DefaultReadHeaderTimeout = 5 * time.Second

	tenantHeader = "X-Tenant"
)

// PrefixLister reports the configured skip prefixes.
type PrefixLister interface {
	Prefixes() []string
}

// Option configures the handler.
type Option func(*handler)

// WithContentLanguage sets the language used when a request names none.
func WithContentLanguage(lang string) Option {
	return func(h *handler) {
		h.contentLanguage = lang
	}
}

// WithPrefixes exposes the configured prefixes on the status endpoint.
func WithPrefixes(p PrefixLister) Option {
	return func(h *handler) {
		h.prefixes = p
	}
}

// WithStoreStats exposes downstream store counters on the status endpoint.
func WithStoreStats(stats func() cache.Stats) Option {
	return func(h *handler) {
		h.storeStats = stats
	}
}

type handler struct {
	resolver *messages.Resolver
	engines  *msgcacheperf.Engines

	contentLanguage string
	prefixes        PrefixLister
	storeStats      func() cache.Stats
}

// New builds the HTTP handler.
func New(resolver *messages.Resolver, engines *msgcacheperf.Engines, opts ...Option) http.Handler {
	h := &handler{resolver: resolver, engines: engines, contentLanguage: "en"}
	for _, opt := range opts {
		opt(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/messages/{key}", h.getMessage)
	mux.HandleFunc("GET /render", h.render)
	mux.HandleFunc("GET /status", h.status)

	var root http.Handler = mux
	root = lhttp.LanguageHTTPMiddleware(h.contentLanguage)(root)
	root = UnitOfWork(root)
	return otelhttp.NewHandler(root, "msgcacheperf")
}

// UnitOfWork gives every request its own skipped key log.
func UnitOfWork(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		skipped := msgcacheperf.NewSkippedKeyLog()

		log := util.Log(r.Context()).WithField("request_id", skipped.ID())
		ctx := util.ContextWithLogger(r.Context(), log)
		ctx = msgcacheperf.SkippedLogToContext(ctx, skipped)

		next.ServeHTTP(w, r.WithContext(ctx))

		if n := skipped.Len(); n > 0 {
			log.WithField("skipped", n).WithField("path", r.URL.Path).Debug("message lookups short-circuited")
		}
	})
}

func (h *handler) language(r *http.Request) string {
	if langs := localization.FromContext(r.Context()); len(langs) > 0 {
		return langs[0]
	}
	return h.contentLanguage
}

func tenant(r *http.Request) string {
	if t := r.URL.Query().Get("tenant"); t != "" {
		return t
	}
	return r.Header.Get(tenantHeader)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		util.Log(ctx).WithError(err).Warn("could not write response")
	}
}

func (h *handler) getMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	msg, err := h.resolver.Get(ctx, messages.Request{
		Tenant:   tenant(r),
		Language: h.language(r),
		Key:      r.PathValue("key"),
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, messages.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(ctx, w, status, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(ctx, w, http.StatusOK, msg)
}

func (h *handler) render(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := h.language(r)
	tenantID := tenant(r)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><body><ul>\n")
	for _, key := range strings.Split(r.URL.Query().Get("keys"), ",") {
		if key = strings.TrimSpace(key); key == "" {
			continue
		}

		text := "⧼" + key + "⧽"
		msg, err := h.resolver.Get(ctx, messages.Request{Tenant: tenantID, Language: lang, Key: key})
		if err == nil {
			text = msg.Text
		}
		fmt.Fprintf(&b, "<li data-key=\"%s\">%s</li>\n", html.EscapeString(key), html.EscapeString(text))
	}
	b.WriteString("</ul></body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(b.String())); err != nil {
		return
	}

	engine := h.engines.For(ctx, h.contentLanguage)
	if err := engine.AfterFinalPageOutput(ctx, w, false); err != nil {
		util.Log(ctx).WithError(err).Warn("could not write skipped message diagnostics")
	}
}

// Status is the body of the status endpoint.
type Status struct {
	ContentLanguage string              `json:"content_language"`
	Prefixes        []string            `json:"prefixes"`
	Registries      []registry.Snapshot `json:"registries"`
	Store           *cache.Stats        `json:"store,omitempty"`
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st := Status{
		ContentLanguage: h.contentLanguage,
		Registries:      h.engines.Locales().Snapshots(ctx),
	}
	if h.prefixes != nil {
		st.Prefixes = h.prefixes.Prefixes()
	}
	if h.storeStats != nil {
		stats := h.storeStats()
		st.Store = &stats
	}

	writeJSON(ctx, w, http.StatusOK, st)
}

// Run serves handler on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	log := util.Log(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("stopping http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to shutdown http server")
		return err
	}
	return nil
}
