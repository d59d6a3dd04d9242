// Package telemetry wires OpenTelemetry tracing for the replay engine.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/colbychapman3/incident-replay-engine-sub000/internal/config"
)

// ServiceName identifies replay runs in trace backends.
const ServiceName = "incident-replay"

// Setup exports command spans to cfg.OTelEndpoint over OTLP HTTP and
// installs the provider globally. With tracing switched off or no endpoint
// it registers nothing. The returned function flushes pending spans; it is
// never nil.
func Setup(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	if !cfg.OTelEnabled || cfg.OTelEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTelEndpoint))
	if err != nil {
		return func(context.Context) error { return nil }, fmt.Errorf("otlp exporter for %s: %w", cfg.OTelEndpoint, err)
	}
	tp, err := newProvider(ctx, cfg, exporter)
	if err != nil {
		return exporter.Shutdown, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp.Shutdown, nil
}

func newProvider(ctx context.Context, cfg config.Config, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(cfg.BuildVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.OTelSampleRatio)),
	), nil
}

// sampler keeps a ratio of root traces. Commands run inside a caller's
// trace follow the caller's decision.
func sampler(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
