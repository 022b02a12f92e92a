package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsTwice(t *testing.T) {
	// Separate registries must not panic on duplicate names
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetInstancesOpen(3)
		m.IncInstancesCreated("notes")
		m.IncInstancesClosed("notes")
		m.RecordLaunch("notes", "created")
		m.RecordEventEmitted("launch-app")
		m.RecordEventMissed("launch-app", "dropped")
		m.RecordHTTPRequest("GET", "/health", "200", time.Millisecond, 0, 0)
		NewTimer(m, "session", "save").StopErr(nil)
	})
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestInstanceCounters(t *testing.T) {
	m := NewMetrics()

	m.SetInstancesOpen(2)
	m.IncInstancesCreated("notes")
	m.IncInstancesCreated("notes")
	m.IncInstancesClosed("notes")
	m.RecordLaunch("notes", "reused")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InstancesOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.InstancesCreated.WithLabelValues("notes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InstancesClosed.WithLabelValues("notes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Launches.WithLabelValues("notes", "reused")))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.OpenInstances)
	assert.Equal(t, int64(1), snap.TotalLaunches)
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/instances/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/instances/inst_1", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/instances/:id", "404")))
	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "desktop_http_requests_total")
	assert.Contains(t, w.Body.String(), "desktop_uptime_seconds")
}
