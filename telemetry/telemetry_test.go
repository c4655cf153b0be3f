package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/pitabwire/msgcacheperf/config"
	"github.com/pitabwire/msgcacheperf/telemetry"
)

type TelemetryTestSuite struct {
	suite.Suite
}

func TestTelemetryTestSuite(t *testing.T) {
	suite.Run(t, new(TelemetryTestSuite))
}

func (s *TelemetryTestSuite) collect(reader sdkmetric.Reader) map[string]metricdata.Metrics {
	var rm metricdata.ResourceMetrics
	s.Require().NoError(reader.Collect(s.T().Context(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func (s *TelemetryTestSuite) TestMetrics() {
	ctx := s.T().Context()
	reader := sdkmetric.NewManualReader()

	mgr := telemetry.NewManager(ctx, &config.ConfigurationDefault{},
		telemetry.WithMetricsReader(reader),
		telemetry.WithServiceName("msgcacheperf-test"),
		telemetry.WithServiceVersion("v0.0.1"),
		telemetry.WithServiceEnvironment("test"),
	)
	s.Require().NoError(mgr.Init(ctx))
	defer func() { s.NoError(mgr.Shutdown(context.WithoutCancel(ctx))) }()

	metrics, err := telemetry.NewMetrics(mgr.Meter())
	s.Require().NoError(err)

	metrics.RecordDecision(ctx, "does_not_exist")
	metrics.RecordDecision(ctx, "does_not_exist")
	metrics.RecordDecision(ctx, "exists")
	metrics.RecordCatalogLoad(ctx, "en", 10, 20*time.Millisecond, nil)
	metrics.RecordCatalogLoad(ctx, "de", 0, time.Millisecond, errors.New("offline"))

	got := s.collect(reader)

	decisions, ok := got[telemetry.DecisionsCounter].Data.(metricdata.Sum[int64])
	s.Require().True(ok)
	perDecision := map[string]int64{}
	for _, dp := range decisions.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("decision"))
		perDecision[v.AsString()] = dp.Value
	}
	s.Equal(map[string]int64{"does_not_exist": 2, "exists": 1}, perDecision)

	loads, ok := got[telemetry.CatalogLoadsCounter].Data.(metricdata.Sum[int64])
	s.Require().True(ok)
	s.Len(loads.DataPoints, 2)

	hist, ok := got[telemetry.CatalogLoadsHistogram].Data.(metricdata.Histogram[float64])
	s.Require().True(ok)
	s.Len(hist.DataPoints, 2)
	s.Equal([]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000}, hist.DataPoints[0].Bounds)
}

func (s *TelemetryTestSuite) TestDisabled() {
	ctx := s.T().Context()

	mgr := telemetry.NewManager(ctx, &config.ConfigurationDefault{OpenTelemetryDisable: true})
	s.True(mgr.Disabled())
	s.Require().NoError(mgr.Init(ctx))
	s.Require().NoError(mgr.Shutdown(ctx))

	metrics, err := telemetry.NewMetrics(mgr.Meter())
	s.Require().NoError(err)
	metrics.RecordDecision(ctx, "unknown")

	s.True(telemetry.NewManager(ctx, nil, telemetry.WithDisableTelemetry()).Disabled())
}

func (s *TelemetryTestSuite) TestNilMetrics() {
	var metrics *telemetry.Metrics
	metrics.RecordDecision(s.T().Context(), "exists")
	metrics.RecordCatalogLoad(s.T().Context(), "en", 0, 0, nil)
}
