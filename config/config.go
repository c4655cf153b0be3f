package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type contextKey string

func (c contextKey) String() string {
	return "msgcacheperf/config/" + string(c)
}

const ctxKeyConfiguration = contextKey("configurationKey")

// ToContext adds service configuration to the current supplied context.
func ToContext(ctx context.Context, config any) context.Context {
	return context.WithValue(ctx, ctxKeyConfiguration, config)
}

// FromContext extracts service configuration from the supplied context if any exist.
func FromContext[T any](ctx context.Context) T {
	if cfg, ok := ctx.Value(ctxKeyConfiguration).(T); ok {
		return cfg
	}
	var zero T
	return zero
}

// FromEnv convenience method to process configs.
func FromEnv[T any]() (T, error) {
	return env.ParseAs[T]()
}

// FillEnv convenience method to fill a config object with environment data.
func FillEnv(v any) error {
	return env.Parse(v)
}

type ConfigurationDefault struct {
	LogLevel      string `envDefault:"info"                      env:"LOG_LEVEL"       yaml:"log_level"`
	LogTimeFormat string `envDefault:"2006-01-02T15:04:05Z07:00" env:"LOG_TIME_FORMAT" yaml:"log_time_format"`
	LogColored    bool   `envDefault:"true"                      env:"LOG_COLORED"     yaml:"log_colored"`

	LogShowStackTrace bool `envDefault:"false" env:"LOG_SHOW_STACK_TRACE" yaml:"log_show_stack_trace"`

	OpenTelemetryDisable bool `envDefault:"false" env:"OPENTELEMETRY_DISABLE" yaml:"opentelemetry_disable"`

	ServiceName        string `envDefault:"msgcacheperf" env:"SERVICE_NAME"        yaml:"service_name"`
	ServiceEnvironment string `envDefault:""             env:"SERVICE_ENVIRONMENT" yaml:"service_environment"`
	ServiceVersion     string `envDefault:""             env:"SERVICE_VERSION"     yaml:"service_version"`

	HTTPServerPort string `envDefault:":8080" env:"HTTP_PORT" yaml:"http_server_port"`

	ProfilerEnable   bool   `envDefault:"false" env:"PROFILER_ENABLE" yaml:"profiler_enable"`
	ProfilerPortAddr string `envDefault:":6060" env:"PROFILER_PORT"   yaml:"profiler_port"`

	// Worker pool settings
	WorkerPoolCPUFactorForWorkerCount int    `envDefault:"10"  env:"WORKER_POOL_CPU_FACTOR_FOR_WORKER_COUNT" yaml:"worker_pool_cpu_factor_for_worker_count"`
	WorkerPoolCapacity                int    `envDefault:"100" env:"WORKER_POOL_CAPACITY"                    yaml:"worker_pool_capacity"`
	WorkerPoolCount                   int    `envDefault:"1"   env:"WORKER_POOL_COUNT"                       yaml:"worker_pool_count"`
	WorkerPoolExpiryDuration          string `envDefault:"1s"  env:"WORKER_POOL_EXPIRY_DURATION"             yaml:"worker_pool_expiry_duration"`

	// Message lookup short-circuit
	LanguageCode         string   `envDefault:"en"    env:"LANGUAGE_CODE"                               yaml:"language_code"`
	MessagePrefixList    []string `envSeparator:","   env:"MESSAGE_CACHE_PERFORMANCE_MSG_PREFIXES"      yaml:"message_prefixes"`
	MessagePrefixesFile  string   `envDefault:""      env:"MESSAGE_CACHE_PERFORMANCE_MSG_PREFIXES_FILE" yaml:"message_prefixes_file"`
	MessageCacheDebug    bool     `envDefault:"false" env:"MESSAGE_CACHE_PERFORMANCE_ENABLE_DEBUG"      yaml:"message_cache_performance_enable_debug"`
	WarmLanguageList     []string `envSeparator:","   env:"WARM_LANGUAGES"                              yaml:"warm_languages"`
	TranslationsFolder   string   `envDefault:""      env:"TRANSLATIONS_FOLDER"                         yaml:"translations_folder"`
	TranslationLanguages []string `envDefault:"en"    env:"TRANSLATION_LANGUAGES"                       yaml:"translation_languages"  envSeparator:","`

	CacheURI    string `envDefault:"mem://" env:"CACHE_URI"     yaml:"cache_uri"`
	CacheDriver string `envDefault:"redis"  env:"CACHE_DRIVER"  yaml:"cache_driver"`
	CacheMaxAge string `envDefault:"1h"     env:"CACHE_MAX_AGE" yaml:"cache_max_age"`

	CatalogDatabaseURL   string `env:"CATALOG_DATABASE_URL"                      yaml:"catalog_database_url"`
	CatalogDatabaseTable string `envDefault:"l10n_cache" env:"CATALOG_DATABASE_TABLE" yaml:"catalog_database_table"`
}

type ConfigurationService interface {
	Name() string
	Environment() string
	Version() string
}

var _ ConfigurationService = new(ConfigurationDefault)

func (c *ConfigurationDefault) Name() string {
	return c.ServiceName
}
func (c *ConfigurationDefault) Environment() string {
	return c.ServiceEnvironment
}
func (c *ConfigurationDefault) Version() string {
	return c.ServiceVersion
}

type ConfigurationLogLevel interface {
	LoggingLevel() string
	LoggingTimeFormat() string
	LoggingShowStackTrace() bool
	LoggingColored() bool
	LoggingLevelIsDebug() bool
}

var _ ConfigurationLogLevel = new(ConfigurationDefault)

func (c *ConfigurationDefault) LoggingLevel() string {
	return c.LogLevel
}

func (c *ConfigurationDefault) LoggingTimeFormat() string {
	return c.LogTimeFormat
}

func (c *ConfigurationDefault) LoggingColored() bool {
	return c.LogColored
}

func (c *ConfigurationDefault) LoggingShowStackTrace() bool {
	return c.LogShowStackTrace
}

func (c *ConfigurationDefault) LoggingLevelIsDebug() bool {
	return c.LoggingLevel() == "debug" || c.LoggingLevel() == "trace"
}

type ConfigurationPorts interface {
	HTTPPort() string
}

var _ ConfigurationPorts = new(ConfigurationDefault)

func (c *ConfigurationDefault) HTTPPort() string {
	if i, err := strconv.Atoi(c.HTTPServerPort); err == nil && i > 0 {
		return fmt.Sprintf(":%s", strings.TrimSpace(c.HTTPServerPort))
	}

	if strings.HasPrefix(c.HTTPServerPort, ":") || strings.Contains(c.HTTPServerPort, ":") {
		return c.HTTPServerPort
	}

	return ":8080"
}

type ConfigurationProfiler interface {
	ProfilerEnabled() bool
	ProfilerPort() string
}

var _ ConfigurationProfiler = new(ConfigurationDefault)

func (c *ConfigurationDefault) ProfilerEnabled() bool {
	return c.ProfilerEnable
}

func (c *ConfigurationDefault) ProfilerPort() string {
	if c.ProfilerPortAddr == "" {
		return ":6060"
	}
	return c.ProfilerPortAddr
}

type ConfigurationTelemetry interface {
	DisableOpenTelemetry() bool
}

var _ ConfigurationTelemetry = new(ConfigurationDefault)

func (c *ConfigurationDefault) DisableOpenTelemetry() bool {
	return c.OpenTelemetryDisable
}

type ConfigurationWorkerPool interface {
	GetCPUFactor() int
	GetCapacity() int
	GetCount() int
	GetExpiryDuration() time.Duration
}

var _ ConfigurationWorkerPool = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCPUFactor() int {
	return c.WorkerPoolCPUFactorForWorkerCount
}

func (c *ConfigurationDefault) GetCapacity() int {
	return c.WorkerPoolCapacity
}

func (c *ConfigurationDefault) GetCount() int {
	return c.WorkerPoolCount
}

func (c *ConfigurationDefault) GetExpiryDuration() time.Duration {
	if c.WorkerPoolExpiryDuration != "" {
		duration, err := time.ParseDuration(c.WorkerPoolExpiryDuration)
		if err == nil {
			return duration
		}
	}

	return time.Second
}

type ConfigurationMessageCache interface {
	ContentLanguage() string
	MessagePrefixes() ([]string, error)
	DebugOutputEnabled() bool
	WarmLanguages() []string
}

var _ ConfigurationMessageCache = new(ConfigurationDefault)

// ContentLanguage is the language whose catalog decides which keys exist.
func (c *ConfigurationDefault) ContentLanguage() string {
	if c.LanguageCode == "" {
		return "en"
	}
	return c.LanguageCode
}

// MessagePrefixes resolves the prefix list: the prefixes file when configured,
// otherwise the environment list, otherwise DefaultMessagePrefixes.
func (c *ConfigurationDefault) MessagePrefixes() ([]string, error) {
	if c.MessagePrefixesFile != "" {
		return LoadPrefixesFile(c.MessagePrefixesFile)
	}
	if c.MessagePrefixList == nil {
		return append([]string(nil), DefaultMessagePrefixes...), nil
	}
	if err := validatePrefixes(c.MessagePrefixList); err != nil {
		return nil, err
	}
	return c.MessagePrefixList, nil
}

func (c *ConfigurationDefault) DebugOutputEnabled() bool {
	return c.MessageCacheDebug
}

// WarmLanguages are loaded at startup; the content language is always included.
func (c *ConfigurationDefault) WarmLanguages() []string {
	out := []string{c.ContentLanguage()}
	for _, l := range c.WarmLanguageList {
		if l = strings.TrimSpace(l); l != "" && l != out[0] {
			out = append(out, l)
		}
	}
	return out
}

type ConfigurationLocalization interface {
	TranslationsPath() string
	Translations() []string
}

var _ ConfigurationLocalization = new(ConfigurationDefault)

func (c *ConfigurationDefault) TranslationsPath() string {
	return c.TranslationsFolder
}

func (c *ConfigurationDefault) Translations() []string {
	return c.TranslationLanguages
}

type ConfigurationCache interface {
	GetCacheURI() string
	GetCacheDriver() string
	GetCacheMaxAge() time.Duration
}

var _ ConfigurationCache = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCacheURI() string {
	return c.CacheURI
}

func (c *ConfigurationDefault) GetCacheDriver() string {
	return c.CacheDriver
}

func (c *ConfigurationDefault) GetCacheMaxAge() time.Duration {
	if d, err := time.ParseDuration(c.CacheMaxAge); err == nil {
		return d
	}
	return time.Hour
}

type ConfigurationCatalog interface {
	GetCatalogDatabaseURL() string
	GetCatalogDatabaseTable() string
}

var _ ConfigurationCatalog = new(ConfigurationDefault)

func (c *ConfigurationDefault) GetCatalogDatabaseURL() string {
	return c.CatalogDatabaseURL
}

func (c *ConfigurationDefault) GetCatalogDatabaseTable() string {
	return c.CatalogDatabaseTable
}
