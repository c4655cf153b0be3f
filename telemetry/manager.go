package telemetry

import (
	"context"
	"errors"
	"os"
	"runtime"

	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetrics "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.40.0"

	"github.com/pitabwire/msgcacheperf/config"
)

// InstrumentationName names the meter every instrument of this module is created on.
const InstrumentationName = "github.com/pitabwire/msgcacheperf"

type Manager interface {
	Init(ctx context.Context) error
	Disabled() bool
	Meter() metric.Meter
	Shutdown(ctx context.Context) error
}

type manager struct {
	serviceName        string
	serviceVersion     string
	serviceEnvironment string

	disabled bool

	metricsReader sdkmetrics.Reader
	provider      *sdkmetrics.MeterProvider
}

// NewManager creates a new telemetry setup manager.
func NewManager(ctx context.Context, cfg config.ConfigurationTelemetry, opts ...Option) Manager {
	m := &manager{}
	if cfg != nil {
		m.disabled = cfg.DisableOpenTelemetry()
	}

	for _, opt := range opts {
		opt(ctx, m)
	}

	return m
}

func (m *manager) Disabled() bool {
	return m.disabled
}

// Meter returns the module meter, a no-op one until Init succeeds.
func (m *manager) Meter() metric.Meter {
	if m.provider == nil {
		return noop.NewMeterProvider().Meter(InstrumentationName)
	}
	return m.provider.Meter(InstrumentationName)
}

func (m *manager) Init(ctx context.Context) error {
	if m.Disabled() {
		return nil
	}

	res, err := m.setupResource()
	if err != nil {
		return err
	}

	if err = m.setupMetricsReader(ctx); err != nil {
		return err
	}

	m.provider = sdkmetrics.NewMeterProvider(
		sdkmetrics.WithReader(m.metricsReader),
		sdkmetrics.WithResource(res),
		sdkmetrics.WithView(Views()...),
	)
	otel.SetMeterProvider(m.provider)
	return nil
}

func (m *manager) Shutdown(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	err := m.provider.Shutdown(ctx)
	if errors.Is(err, sdkmetrics.ErrReaderShutdown) {
		return nil
	}
	return err
}

// setupResource creates and returns the OpenTelemetry resource.
func (m *manager) setupResource() (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(m.serviceName),
		semconv.ServiceVersion(m.serviceVersion),
		semconv.DeploymentEnvironmentName(m.serviceEnvironment),
		semconv.ProcessPID(os.Getpid()),
		semconv.ProcessRuntimeName("go"),
		semconv.ProcessRuntimeVersion(runtime.Version()),
	}

	return resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
}

// setupMetricsReader initializes the metrics reader if not already set.
func (m *manager) setupMetricsReader(ctx context.Context) error {
	if m.metricsReader == nil {
		if os.Getenv("OTEL_METRICS_EXPORTER") == "" {
			_ = os.Setenv("OTEL_METRICS_EXPORTER", "none")
		}
		var err error
		m.metricsReader, err = autoexport.NewMetricReader(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}
