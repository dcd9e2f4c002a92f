package tracing

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var traceProvider *sdktrace.TracerProvider

// Init installs an OTLP/HTTP tracer provider. With an empty endpoint the global
// no-op provider stays in place and spans cost nothing.
func Init(ctx context.Context, serviceName, endpoint string, insecure bool) error {
	if endpoint == "" {
		log.Println("[TRACE] OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(traceProvider)

	log.Printf("[TRACE] OpenTelemetry tracing initialized endpoint=%s", endpoint)
	return nil
}

func Shutdown(ctx context.Context) {
	if traceProvider == nil {
		return
	}
	if err := traceProvider.Shutdown(ctx); err != nil {
		log.Printf("[TRACE][ERR] shutting down tracer: %v", err)
		return
	}
	log.Println("[TRACE] tracer shutdown complete")
}
