package pevent

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	attrEventCount = attribute.Key("pevent.event_count")
	attrWaitAll    = attribute.Key("pevent.wait_all")
)

// tracer is package-level and overridable, following the same pattern as
// logger: most callers never touch it and get the otel no-op tracer by
// default, but a host application wiring up real tracing can call
// SetTracerProvider once at startup.
var tracer = otel.Tracer("github.com/dannyzb/pevent")

// SetTracerProvider installs tp as the source of spans for
// WaitForMultipleEvents. Single-event Wait is not traced: it is meant to
// be cheap enough to sit on hot paths, and a span per call would dominate
// its own cost.
func SetTracerProvider(tp trace.TracerProvider) {
	tracer = tp.Tracer("github.com/dannyzb/pevent")
}

// startMultiWaitSpan wraps a WaitForMultipleEvents call in a span carrying
// the event count and wait mode, since a stuck multi-wait is exactly the
// kind of thing worth seeing in a distributed trace alongside whatever
// work the waiting goroutine was coordinating.
func startMultiWaitSpan(ctx context.Context, n int, waitAll bool) (context.Context, trace.Span) {
	return tracer.Start(ctx, "pevent.WaitForMultipleEvents",
		trace.WithAttributes(
			attrEventCount.Int(n),
			attrWaitAll.Bool(waitAll),
		),
	)
}
