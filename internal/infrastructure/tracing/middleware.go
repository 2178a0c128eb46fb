package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
)

// HTTPMiddleware opens a span per request, continuing the caller's trace
// when X-Trace-ID is present, and echoes the ids on the response.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithIDs(c.Request.Context(),
			TraceID(c.GetHeader(HeaderTraceID)),
			SpanID(c.GetHeader(HeaderSpanID)),
		)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, name)
		span.SetTag("http.method", c.Request.Method)
		if session := c.Query("session_id"); session != "" {
			span.SetTag("session_id", session)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		status := c.Writer.Status()
		span.SetStatus(status)
		span.SetTag("http.status", strconv.Itoa(status))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		span.Finish()
		tracer.Submit(span)
	}
}

// RestyMiddleware copies the request context's trace onto outgoing calls.
// Register it with resty.Client.OnBeforeRequest.
func RestyMiddleware(_ *resty.Client, r *resty.Request) error {
	ctx := r.Context()
	if traceID := TraceIDFrom(ctx); traceID != "" {
		r.SetHeader(HeaderTraceID, string(traceID))
	}
	if spanID := SpanIDFrom(ctx); spanID != "" {
		r.SetHeader(HeaderSpanID, string(spanID))
	}
	return nil
}
