// Package trace configures the global OpenTelemetry tracer provider.
package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/macropower/browserhost/pkg/version"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "browserhost"

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(ctx context.Context) error

// Opt configures [Setup].
type Opt func(*options)

type options struct {
	exporter sdktrace.SpanExporter
	endpoint string
	insecure bool
}

// WithEndpoint exports spans over OTLP gRPC to endpoint (host:port).
func WithEndpoint(endpoint string, insecure bool) Opt {
	return func(o *options) {
		o.endpoint = endpoint
		o.insecure = insecure
	}
}

// WithExporter exports spans to e instead of an OTLP endpoint.
func WithExporter(e sdktrace.SpanExporter) Opt {
	return func(o *options) {
		o.exporter = e
	}
}

// Setup installs a global tracer provider. Without an endpoint or exporter
// the global no-op provider is left in place and the returned
// [ShutdownFunc] does nothing.
func Setup(ctx context.Context, opts ...Opt) (ShutdownFunc, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.exporter == nil && o.endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter := o.exporter
	if exporter == nil {
		clientOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(o.endpoint)}
		if o.insecure {
			clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
		}

		var err error

		exporter, err = otlptracegrpc.New(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("create OTLP exporter: %w", err)
		}
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version.GetVersion()),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	slog.DebugContext(ctx, "tracing enabled", slog.String("endpoint", o.endpoint))

	return func(ctx context.Context) error {
		err := tp.Shutdown(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}

		return nil
	}, nil
}
