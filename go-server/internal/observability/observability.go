// Package observability wires tracing and metrics exposure for the
// server. Tracing goes to an OTLP collector when one is configured;
// metrics are exposed for Prometheus to scrape.
package observability

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.uber.org/zap"
)

// Observability holds the running telemetry components.
type Observability struct {
	tracerShutdown    func(ctx context.Context) error
	PrometheusHandler http.Handler
	TracingEnabled    bool
}

// Setup initializes tracing (if OTEL_EXPORTER_OTLP_ENDPOINT is set) and
// the Prometheus scrape handler. It never fails the boot over a missing
// collector; it logs and runs without tracing instead.
func Setup(serviceName, environment string) *Observability {
	obs := &Observability{
		PrometheusHandler: promhttp.Handler(),
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		zap.L().Info("OTLP endpoint not configured, tracing disabled")
		return obs
	}

	shutdown, err := initTracer(serviceName, environment, stripProtocol(endpoint))
	if err != nil {
		zap.L().Warn("Failed to initialize tracing, continuing without it", zap.Error(err))
		return obs
	}

	obs.tracerShutdown = shutdown
	obs.TracingEnabled = true
	zap.L().Info("Tracing initialized", zap.String("endpoint", endpoint))
	return obs
}

// Shutdown flushes and stops the telemetry components.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.tracerShutdown != nil {
		if err := o.tracerShutdown(ctx); err != nil {
			return fmt.Errorf("tracer shutdown: %w", err)
		}
	}
	return nil
}

func initTracer(serviceName, environment, endpoint string) (func(context.Context) error, error) {
	ctx := context.Background()

	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return tracerProvider.Shutdown, nil
}

// stripProtocol removes http:// or https:// (otlptracehttp expects host:port)
func stripProtocol(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimPrefix(endpoint, "https://")
}
