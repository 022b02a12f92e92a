package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
)

// HandlerMetrics times domain operations behind handlers
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper; nil metrics disable recording
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// Track starts a timer for one operation of service
func (hm *HandlerMetrics) Track(service, operation string) *monitoring.Timer {
	return monitoring.NewTimer(hm.metrics, service, operation)
}

// MetricsJSON returns a compact metrics summary for dashboards without a scraper
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.metrics.Snapshot())
}
