package telemetry

import (
	"context"

	sdkmetrics "go.opentelemetry.io/otel/sdk/metric"
)

type Option func(ctx context.Context, m *manager)

// WithDisableTelemetry turns Init into a no-op.
func WithDisableTelemetry() Option {
	return func(_ context.Context, s *manager) {
		s.disabled = true
	}
}

// WithServiceName sets the service name for resource tagging.
func WithServiceName(name string) Option {
	return func(_ context.Context, s *manager) {
		s.serviceName = name
	}
}

// WithServiceVersion sets the service version for resource tagging.
func WithServiceVersion(version string) Option {
	return func(_ context.Context, s *manager) {
		s.serviceVersion = version
	}
}

// WithServiceEnvironment sets the service environment for resource tagging.
func WithServiceEnvironment(env string) Option {
	return func(_ context.Context, s *manager) {
		s.serviceEnvironment = env
	}
}

// WithMetricsReader specifies the metrics reader to use instead of the
// OTEL_METRICS_EXPORTER driven one.
func WithMetricsReader(reader sdkmetrics.Reader) Option {
	return func(_ context.Context, s *manager) {
		s.metricsReader = reader
	}
}
