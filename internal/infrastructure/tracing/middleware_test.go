package tracing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHTTPMiddleware(t *testing.T) {
	tracer, logs := newObservedTracer(t)

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/instances/:id", func(c *gin.Context) {
		c.String(http.StatusOK, string(GetTraceID(c.Request.Context())))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/instances/inst_1", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	req.Header.Set(SpanIDHeader, "upstream")
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
	spanID := w.Header().Get(SpanIDHeader)
	assert.NotEmpty(t, spanID)

	tracer.Close()
	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc-123", fields["trace_id"])
	assert.Equal(t, spanID, fields["span_id"])
	assert.Equal(t, "upstream", fields["parent_id"])
	assert.Equal(t, "GET /instances/:id", fields["operation"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}

func TestHTTPMiddlewareAssignsTraceID(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMiddleware(nil))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, strings.HasPrefix(w.Header().Get(RequestIDHeader), "req_"))

	// Trace ids from X-Trace-ID are accepted, oversized ones are replaced
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-9")
	router.ServeHTTP(w, req)
	assert.Equal(t, "trace-9", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxHeaderID+1))
	router.ServeHTTP(w, req)
	assert.True(t, strings.HasPrefix(w.Header().Get(RequestIDHeader), "req_"))
}
