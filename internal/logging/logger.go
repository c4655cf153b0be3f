// Package logging builds the process logger from configuration.
package logging

import (
	"context"

	"github.com/pitabwire/util"

	"github.com/pitabwire/msgcacheperf/config"
)

// New creates the root logger. cfg may be nil, in which case util defaults apply.
// Extra opts are applied after the configured ones.
func New(ctx context.Context, cfg config.ConfigurationLogLevel, extra ...util.Option) *util.LogEntry {
	var opts []util.Option

	if cfg != nil {
		logLevel, err := util.ParseLevel(cfg.LoggingLevel())
		if err == nil {
			opts = append(opts, util.WithLogLevel(logLevel))
		}
		opts = append(opts,
			util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
			util.WithLogNoColor(!cfg.LoggingColored()))
		if cfg.LoggingShowStackTrace() {
			opts = append(opts, util.WithLogStackTrace())
		}
	}

	return util.NewLogger(ctx, append(opts, extra...)...)
}

// WithService returns ctx carrying log tagged with the service name.
func WithService(ctx context.Context, log *util.LogEntry, service config.ConfigurationService) context.Context {
	if service != nil {
		log = log.WithField("service", service.Name())
		if v := service.Version(); v != "" {
			log = log.WithField("version", v)
		}
	}
	return util.ContextWithLogger(ctx, log)
}
