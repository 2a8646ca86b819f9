package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "nullannotate"

	// UnitSpanName is the span wrapping each analyzer unit invocation (§4.K).
	UnitSpanName = "nullannotate.unit.analyze"
)

// Tracer returns the process-wide nullannotate tracer, sourced from
// whatever global TracerProvider is installed (a no-op one unless the
// caller configured OTel exporting).
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartUnitSpan opens the per-unit span with the attributes §4.K names:
// object_file, generation, and functions_selected. The caller records the
// outcome attribute and ends the span once the invocation completes.
func StartUnitSpan(ctx context.Context, objectFile string, generation, functionsSelected int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, UnitSpanName, trace.WithAttributes(
		attribute.String("object_file", objectFile),
		attribute.Int("generation", generation),
		attribute.Int("functions_selected", functionsSelected),
	))
}

// SetUnitOutcome records the outcome attribute on span once the unit
// invocation finishes.
func SetUnitOutcome(span trace.Span, outcome string) {
	span.SetAttributes(attribute.String("outcome", outcome))
}
