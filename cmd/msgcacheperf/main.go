package main

import (
	"context"
	"embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/pitabwire/util"

	"github.com/pitabwire/msgcacheperf"
	"github.com/pitabwire/msgcacheperf/cache"
	"github.com/pitabwire/msgcacheperf/cache/backend"
	"github.com/pitabwire/msgcacheperf/catalog"
	"github.com/pitabwire/msgcacheperf/catalog/postgres"
	"github.com/pitabwire/msgcacheperf/config"
	"github.com/pitabwire/msgcacheperf/internal/logging"
	"github.com/pitabwire/msgcacheperf/localization"
	"github.com/pitabwire/msgcacheperf/matcher"
	"github.com/pitabwire/msgcacheperf/messages"
	"github.com/pitabwire/msgcacheperf/profiler"
	"github.com/pitabwire/msgcacheperf/registry"
	"github.com/pitabwire/msgcacheperf/server"
	"github.com/pitabwire/msgcacheperf/telemetry"
	"github.com/pitabwire/msgcacheperf/version"
	"github.com/pitabwire/msgcacheperf/workerpool"
)

//go:embed translations
var bundledTranslations embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		util.Log(ctx).WithError(err).Error("msgcacheperf stopped")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		return err
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = version.Get()
	}

	ctx = logging.WithService(ctx, logging.New(ctx, &cfg), &cfg)
	ctx = config.ToContext(ctx, &cfg)
	log := util.Log(ctx)
	log.WithField("build", version.String()).Info("starting msgcacheperf")

	tm := telemetry.NewManager(ctx, &cfg,
		telemetry.WithServiceName(cfg.Name()),
		telemetry.WithServiceVersion(cfg.Version()),
		telemetry.WithServiceEnvironment(cfg.Environment()))
	if err = tm.Init(ctx); err != nil {
		return err
	}
	defer func() {
		if shutdownErr := tm.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			log.WithError(shutdownErr).Warn("telemetry shutdown failed")
		}
	}()

	metrics, err := telemetry.NewMetrics(tm.Meter())
	if err != nil {
		return err
	}

	lm, err := openTranslations(&cfg)
	if err != nil {
		return err
	}

	provider := catalog.Provider(lm)
	if dsn := cfg.GetCatalogDatabaseURL(); dsn != "" {
		pg, pool, connErr := postgres.Connect(ctx, dsn, postgres.WithTable(cfg.GetCatalogDatabaseTable()))
		if connErr != nil {
			return connErr
		}
		defer pool.Close()
		provider = catalog.Chain(lm, pg)
	}

	prefixList, err := cfg.MessagePrefixes()
	if err != nil {
		return err
	}
	prefixes, err := matcher.New(prefixList)
	if err != nil {
		return err
	}

	locales := registry.NewLocales(provider, registry.WithLoadHook(metrics.RecordCatalogLoad))
	engines := msgcacheperf.NewEngines(locales,
		msgcacheperf.WithPrefixMatcher(prefixes),
		msgcacheperf.WithSkipObserver(msgcacheperf.ContextSkipObserver{}),
		msgcacheperf.WithDecisionRecorder(metrics),
		msgcacheperf.WithDebugOutput(cfg.DebugOutputEnabled()),
	)

	store, err := backend.Open(ctx, cfg.GetCacheURI(), cfg.GetCacheDriver(),
		cache.WithName(cfg.Name()),
		cache.WithMaxAge(cfg.GetCacheMaxAge()))
	if err != nil {
		return err
	}
	counted := cache.Counting(store)
	defer func() {
		if closeErr := counted.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("closing message store failed")
		}
	}()

	resolver := messages.NewResolver(engines, counted, lm,
		messages.WithContentLanguage(cfg.ContentLanguage()))

	pool, err := workerpool.New(ctx, &cfg)
	if err != nil {
		return err
	}
	defer pool.Shutdown()

	if err = locales.Warm(ctx, pool, cfg.WarmLanguages()...); err != nil {
		return err
	}
	for _, snap := range locales.Snapshots(ctx) {
		log.WithField("locale", snap.Locale).WithField("keys", snap.Keys).Info("known message keys loaded")
	}

	pprofServer := profiler.NewServer()
	if err = pprofServer.StartIfEnabled(ctx, &cfg); err != nil {
		return err
	}
	defer func() {
		_ = pprofServer.Stop(context.WithoutCancel(ctx))
	}()

	handler := server.New(resolver, engines,
		server.WithContentLanguage(cfg.ContentLanguage()),
		server.WithPrefixes(prefixes),
		server.WithStoreStats(counted.Stats))

	return server.Run(ctx, cfg.HTTPPort(), handler)
}

func openTranslations(cfg config.ConfigurationLocalization) (localization.Manager, error) {
	if path := cfg.TranslationsPath(); path != "" {
		return localization.NewManager(path, cfg.Translations()...)
	}
	return localization.NewManagerFS(bundledTranslations, "translations", "en")
}
