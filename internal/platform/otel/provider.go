// Package otel wires the trainer's request spans to an OTLP/HTTP collector.
package otel

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects the collector and sampling.
//
// CARDTRAINER_OTEL_ENDPOINT is a full URL such as http://collector:4318.
// CARDTRAINER_OTEL_SAMPLE_RATIO applies to root spans only; requests that
// arrive with a sampled traceparent stay sampled.
type Config struct {
	Endpoint    string  `env:"CARDTRAINER_OTEL_ENDPOINT"`
	Enabled     bool    `env:"CARDTRAINER_OTEL_ENABLED" envDefault:"true"`
	SampleRatio float64 `env:"CARDTRAINER_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func noopShutdown(context.Context) error { return nil }

// Setup registers a global tracer provider for serviceName. Without an
// endpoint, or with Enabled unset, nothing is registered and the returned
// shutdown does nothing. Callers defer shutdown to flush batched spans.
func Setup(ctx context.Context, serviceName string, cfg Config) (func(context.Context) error, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if !cfg.Enabled || endpoint == "" {
		return noopShutdown, nil
	}
	sampler, err := newSampler(cfg.SampleRatio)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noopShutdown, fmt.Errorf("trace exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return noopShutdown, fmt.Errorf("trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return provider.Shutdown, nil
}

// newSampler treats a zero ratio as "sample everything".
func newSampler(ratio float64) (sdktrace.Sampler, error) {
	switch {
	case ratio < 0 || ratio > 1:
		return nil, fmt.Errorf("otel sample ratio must be between 0 and 1, got %v", ratio)
	case ratio == 0 || ratio == 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), nil
	}
}
