/*
Package tracing provides lightweight request tracing for the driver.

# Overview

Every HTTP request gets a span. A client may continue its own trace by
sending X-Trace-ID and X-Span-ID; the server echoes the ids it used on the
response. Finished spans are logged through zap by a buffered collector.

# Usage

	tracer := tracing.New("deskdriver", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	// Nested span around automation work
	err := tracer.Trace(ctx, "automation.click", func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("session_id", sid)
		return session.Click(eid)
	})

A nil *Tracer is valid and records nothing.

# Trace Format

Trace ids are ULIDs prefixed "req_", span ids are ULIDs prefixed "span_",
both from internal/shared/id.
*/
package tracing
