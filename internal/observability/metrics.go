package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricUnitsTotal     = "nullannotate.units.total"
	metricUnitDuration   = "nullannotate.unit.duration.seconds"
	metricUnitsInflight  = "nullannotate.units.inflight"
	metricFunctionsTotal = "nullannotate.functions.selected.total"

	attrOutcome    = "outcome"
	attrObjectFile = "object_file"
)

// durationBucketBoundaries covers 1s to 3600s: CPAchecker runs range from
// sub-second trivial units to hour-long whole-kernel-object analyses.
var durationBucketBoundaries = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800, 3600}

// UnitMetrics holds the OTel instruments the fixpoint controller emits one
// of per unit invocation (§4.K): a counter of outcomes, a histogram of
// per-unit analyzer wall-clock, and an up/down in-flight-units counter
// (always 0 or 1 given the single-threaded scheduler, kept for parity with
// multi-run dashboards).
type UnitMetrics struct {
	unitsTotal     metric.Int64Counter
	unitDuration   metric.Float64Histogram
	unitsInflight  metric.Int64UpDownCounter
	functionsTotal metric.Int64Counter
}

// NewUnitMetrics creates the unit metric instruments from mt.
func NewUnitMetrics(mt metric.Meter) (*UnitMetrics, error) {
	b := newMetricBuilder(mt)

	um := &UnitMetrics{
		unitsTotal:     b.counter(metricUnitsTotal, "Total analyzer invocations by outcome", "{unit}"),
		unitDuration:   b.histogram(metricUnitDuration, "Per-unit analyzer wall-clock duration in seconds", "s", durationBucketBoundaries...),
		unitsInflight:  b.upDownCounter(metricUnitsInflight, "Number of in-flight unit analyses", "{unit}"),
		functionsTotal: b.counter(metricFunctionsTotal, "Total functions selected for analysis across units", "{function}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return um, nil
}

// TrackInflight increments the in-flight gauge for objectFile and returns a
// function to decrement it once the unit invocation completes.
func (um *UnitMetrics) TrackInflight(ctx context.Context, objectFile string) func() {
	if um == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrObjectFile, objectFile))
	um.unitsInflight.Add(ctx, 1, attrs)

	return func() {
		um.unitsInflight.Add(ctx, -1, attrs)
	}
}

// RecordUnit records one completed unit invocation: its outcome, wall-clock
// duration, and the number of functions it selected for analysis. Safe to
// call on a nil receiver (no-op), so callers need not guard every call site
// when metrics are disabled.
func (um *UnitMetrics) RecordUnit(ctx context.Context, outcome string, duration time.Duration, functionsSelected int) {
	if um == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))
	um.unitsTotal.Add(ctx, 1, attrs)
	um.unitDuration.Record(ctx, duration.Seconds(), attrs)
	um.functionsTotal.Add(ctx, int64(functionsSelected))
}
