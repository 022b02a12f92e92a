/*
Package tracing provides lightweight request tracing for the desktop service.

# Overview

A trace follows one user action from the HTTP request that started it,
across the event bridge, into the launch router. Spans are collected
asynchronously and exported as structured zap log lines.

# Usage

	tracer := tracing.New("desktop", logger)
	defer tracer.Close()

	engine.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "launch")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
	span.SetTag("app_id", "notes")

# Propagation

Incoming requests may carry X-Request-ID (or X-Trace-ID) and X-Span-ID. The
trace id is echoed in X-Request-ID on every response. Events emitted with a
traced context carry the trace and span ids to their subscribers.

A nil *Tracer is valid: spans are still created and propagated, but never
exported.
*/
package tracing
