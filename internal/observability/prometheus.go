package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusHandler creates a Prometheus metrics exporter backed by a fresh
// OTel MeterProvider and returns an http.Handler serving the /metrics
// scrape endpoint alongside the MeterProvider whose instruments it
// exports — the caller must build its Meter (and therefore its
// UnitMetrics) from the returned provider, or the endpoint will have
// nothing to scrape. Each call creates an independent Prometheus registry
// to avoid collector conflicts across repeated invocations (e.g. tests).
func PrometheusHandler() (http.Handler, metric.MeterProvider, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), provider, nil
}
