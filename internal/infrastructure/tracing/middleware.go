package tracing

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// Propagation headers
const (
	RequestIDHeader = "X-Request-ID"
	TraceIDHeader   = "X-Trace-ID"
	SpanIDHeader    = "X-Span-ID"
)

const maxHeaderID = 128

// HTTPMiddleware creates Gin middleware that opens one span per request.
// The trace id is taken from X-Request-ID or X-Trace-ID when present and
// echoed back in X-Request-ID.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := TraceID(headerID(c, RequestIDHeader))
		if traceID == "" {
			traceID = TraceID(headerID(c, TraceIDHeader))
		}
		parentID := SpanID(headerID(c, SpanIDHeader))

		ctx := ContextWithTrace(c.Request.Context(), traceID, parentID)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, string(span.TraceID))
		c.Header(SpanIDHeader, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		if len(c.Errors) > 0 {
			span.SetError(errors.New(c.Errors.String()))
		}

		span.Finish()
		tracer.Submit(span)
	}
}

// headerID returns a header value usable as an id, or "" when absent or oversized
func headerID(c *gin.Context, header string) string {
	v := c.GetHeader(header)
	if len(v) > maxHeaderID {
		return ""
	}
	return v
}
