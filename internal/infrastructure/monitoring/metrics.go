package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Instance metrics
	InstancesOpen    prometheus.Gauge
	InstancesCreated *prometheus.CounterVec
	InstancesClosed  *prometheus.CounterVec
	Launches         *prometheus.CounterVec

	// Event bridge metrics
	EventsEmitted   *prometheus.CounterVec
	EventsDelivered *prometheus.CounterVec
	EventsMissed    *prometheus.CounterVec
	HandlerPanics   *prometheus.CounterVec

	// Service metrics
	ServiceCalls    *prometheus.CounterVec
	ServiceDuration *prometheus.HistogramVec

	// Session metrics
	SessionsStored   prometheus.Gauge
	SessionsSaved    prometheus.Counter
	SessionsRestored prometheus.Counter

	// Catalog metrics
	CatalogApps prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	gatherer  prometheus.Gatherer
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	OpenInstances     int64   `json:"open_instances"`
	TotalLaunches     int64   `json:"total_launches"`
	ActiveConnections int64   `json:"active_connections"`
	AvgDurationMs     float64 `json:"avg_duration_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`

	totalDuration float64
}

// NewMetrics creates a metrics collector on a private registry
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

// NewMetricsWith registers every collector on reg
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		gatherer:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Instance metrics
		InstancesOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_instances_open",
				Help: "Number of open window instances",
			},
		),
		InstancesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_instances_created_total",
				Help: "Total number of instances created",
			},
			[]string{"app"},
		),
		InstancesClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_instances_closed_total",
				Help: "Total number of instances closed",
			},
			[]string{"app"},
		),
		Launches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_launches_total",
				Help: "Launch intents by outcome",
			},
			[]string{"app", "outcome"},
		),

		// Event bridge metrics
		EventsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_events_emitted_total",
				Help: "Events emitted on the bridge",
			},
			[]string{"channel"},
		),
		EventsDelivered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_events_delivered_total",
				Help: "Events delivered to a handler",
			},
			[]string{"channel"},
		),
		EventsMissed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_events_missed_total",
				Help: "Events emitted with no subscriber, by disposition",
			},
			[]string{"channel", "disposition"},
		),
		HandlerPanics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_event_handler_panics_total",
				Help: "Recovered panics in event handlers",
			},
			[]string{"channel"},
		),

		// Service metrics
		ServiceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_service_calls_total",
				Help: "Total number of service calls",
			},
			[]string{"service", "method", "status"},
		),
		ServiceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "desktop_service_duration_seconds",
				Help:    "Service call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"service", "method"},
		),

		// Session metrics
		SessionsStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_sessions_stored",
				Help: "Number of saved workspace sessions",
			},
		),
		SessionsSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktop_sessions_saved_total",
				Help: "Total number of sessions saved",
			},
		),
		SessionsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "desktop_sessions_restored_total",
				Help: "Total number of sessions restored",
			},
		),

		// Catalog metrics
		CatalogApps: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_catalog_apps",
				Help: "Number of apps in the catalog",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "desktop_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "desktop_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "desktop_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the Prometheus exposition format for this collector's registry
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Snapshot returns current values for the JSON API
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	if snap.TotalRequests > 0 {
		snap.AvgDurationMs = snap.totalDuration / float64(snap.TotalRequests) * 1000
	}
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDuration += duration.Seconds()
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordServiceCall records a service call
func (m *Metrics) RecordServiceCall(service, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ServiceCalls.WithLabelValues(service, method, status).Inc()
	m.ServiceDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// SetInstancesOpen sets the number of open instances
func (m *Metrics) SetInstancesOpen(count int) {
	if m == nil {
		return
	}
	m.InstancesOpen.Set(float64(count))
	m.mu.Lock()
	m.snapshot.OpenInstances = int64(count)
	m.mu.Unlock()
}

// IncInstancesCreated counts a created instance
func (m *Metrics) IncInstancesCreated(appID string) {
	if m == nil {
		return
	}
	m.InstancesCreated.WithLabelValues(appID).Inc()
}

// IncInstancesClosed counts a closed instance
func (m *Metrics) IncInstancesClosed(appID string) {
	if m == nil {
		return
	}
	m.InstancesClosed.WithLabelValues(appID).Inc()
}

// RecordLaunch counts a launch intent by outcome (created, reused, rejected)
func (m *Metrics) RecordLaunch(appID, outcome string) {
	if m == nil {
		return
	}
	m.Launches.WithLabelValues(appID, outcome).Inc()
	m.mu.Lock()
	m.snapshot.TotalLaunches++
	m.mu.Unlock()
}

// RecordEventEmitted counts an emitted event
func (m *Metrics) RecordEventEmitted(channel string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(channel).Inc()
}

// RecordEventDelivered counts a handler invocation
func (m *Metrics) RecordEventDelivered(channel string) {
	if m == nil {
		return
	}
	m.EventsDelivered.WithLabelValues(channel).Inc()
}

// RecordEventMissed counts an emission that found no subscriber.
// disposition is "buffered" or "dropped".
func (m *Metrics) RecordEventMissed(channel, disposition string) {
	if m == nil {
		return
	}
	m.EventsMissed.WithLabelValues(channel, disposition).Inc()
}

// RecordHandlerPanic counts a recovered handler panic
func (m *Metrics) RecordHandlerPanic(channel string) {
	if m == nil {
		return
	}
	m.HandlerPanics.WithLabelValues(channel).Inc()
}

// SetSessionsStored sets the number of saved sessions
func (m *Metrics) SetSessionsStored(count int) {
	if m == nil {
		return
	}
	m.SessionsStored.Set(float64(count))
}

// IncSessionsSaved increments the sessions saved counter
func (m *Metrics) IncSessionsSaved() {
	if m == nil {
		return
	}
	m.SessionsSaved.Inc()
}

// IncSessionsRestored increments the sessions restored counter
func (m *Metrics) IncSessionsRestored() {
	if m == nil {
		return
	}
	m.SessionsRestored.Inc()
}

// SetCatalogApps sets the number of apps in the catalog
func (m *Metrics) SetCatalogApps(count int) {
	if m == nil {
		return
	}
	m.CatalogApps.Set(float64(count))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
