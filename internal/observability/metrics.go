// Package observability provides OpenTelemetry instrumentation for tracing and metrics.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes the OpenTelemetry metrics provider with a Prometheus exporter.
// It returns the HTTP handler for the /metrics endpoint and a shutdown function.
// The shutdown function should be called on application exit for graceful cleanup.
func InitMetrics() (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	otel.SetMeterProvider(provider)

	return promhttp.Handler(), provider.Shutdown, nil
}

// RegisterBacklogGauge registers an observable gauge reporting the number of
// due, unprocessed rules. The count callback runs only when the metrics
// endpoint is scraped.
func RegisterBacklogGauge(serviceName string, count func(context.Context) (int64, error), log *slog.Logger) error {
	meter := otel.Meter(serviceName)
	_, err := meter.Int64ObservableGauge("finsweep.rules.due_backlog",
		metric.WithDescription("Current number of recurring rules due for generation"),
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			n, err := count(ctx)
			if err != nil {
				// Keep the scrape alive even when the DB is down.
				log.Warn("failed to count due backlog", slog.String("error", err.Error()))
				return nil
			}
			obs.Observe(n)
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to register due backlog gauge: %w", err)
	}
	return nil
}
