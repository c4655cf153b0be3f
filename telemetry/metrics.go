package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Units are encoded according to the case-sensitive abbreviations from the
// Unified Code for Units of Measure: http://unitsofmeasure.org/ucum.html.
const (
	unitDimensionless = "1"
	unitMilliseconds  = "ms"
)

const (
	DecisionsCounter      = "msgcacheperf.decisions"
	CatalogLoadsCounter   = "msgcacheperf.catalog.loads"
	CatalogLoadsHistogram = "msgcacheperf.catalog.load.duration"

	decisionKey = attribute.Key("decision")
	localeKey   = attribute.Key("locale")
	statusKey   = attribute.Key("status")
)

var catalogLoadBoundaries = []float64{ //nolint:gochecknoglobals // shared histogram boundaries
	1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000,
}

// Views shapes the catalog load histogram: catalog fetches take from milliseconds
// (translation files) to tens of seconds (a cold database).
func Views() []sdkmetric.View {
	return []sdkmetric.View{
		func(inst sdkmetric.Instrument) (sdkmetric.Stream, bool) {
			if inst.Kind == sdkmetric.InstrumentKindHistogram && inst.Name == CatalogLoadsHistogram {
				return sdkmetric.Stream{
					Name:        inst.Name,
					Description: inst.Description,
					Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
						Boundaries: catalogLoadBoundaries,
					},
					AttributeFilter: func(kv attribute.KeyValue) bool {
						return kv.Key == localeKey || kv.Key == statusKey
					},
				}, true
			}
			return sdkmetric.Stream{}, false
		},
	}
}

// Metrics records message lookup decisions and catalog loads.
type Metrics struct {
	decisions    metric.Int64Counter
	catalogLoads metric.Int64Counter
	loadDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	decisions, err := meter.Int64Counter(DecisionsCounter,
		metric.WithDescription("Message lookups by short-circuit decision."),
		metric.WithUnit(unitDimensionless))
	if err != nil {
		return nil, err
	}

	loads, err := meter.Int64Counter(CatalogLoadsCounter,
		metric.WithDescription("Known message key catalog fetches by locale and status."),
		metric.WithUnit(unitDimensionless))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(CatalogLoadsHistogram,
		metric.WithDescription("Time taken to fetch the known message key catalog."),
		metric.WithUnit(unitMilliseconds))
	if err != nil {
		return nil, err
	}

	return &Metrics{decisions: decisions, catalogLoads: loads, loadDuration: duration}, nil
}

// RecordDecision counts one decision.
func (m *Metrics) RecordDecision(ctx context.Context, decision string) {
	if m == nil {
		return
	}
	m.decisions.Add(ctx, 1, metric.WithAttributes(decisionKey.String(decision)))
}

// RecordCatalogLoad has the signature of a registry load hook.
func (m *Metrics) RecordCatalogLoad(ctx context.Context, locale string, _ int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}

	attrs := metric.WithAttributes(localeKey.String(locale), statusKey.String(status))
	m.catalogLoads.Add(ctx, 1, attrs)
	m.loadDuration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
