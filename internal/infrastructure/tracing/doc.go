/*
Package tracing provides lightweight request tracing.

# Overview

A trace follows one request from the UI through the backend to the view host
and agent service. Spans are logged through zap at debug level; there is no
external collector.

# Features

- Trace context propagation via HTTP headers
- Span creation with parent-child relationships
- Gin middleware for inbound requests
- Resty hook for outbound host and agent calls
- Buffered, asynchronous span collection

# Usage

	tracer := tracing.New("browserdesk", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))
	client.OnBeforeRequest(tracing.RestyMiddleware)

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Trace Format

- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation
*/
package tracing
