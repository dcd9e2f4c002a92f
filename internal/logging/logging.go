package logging

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/trace"
)

// WithTrace logs through the standard logger, prefixed with the trace id of the
// span in ctx when there is one.
func WithTrace(ctx context.Context, format string, args ...any) {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		log.Printf(format, args...)
		return
	}
	log.Printf("trace_id=%s "+format, append([]any{sc.TraceID().String()}, args...)...)
}
