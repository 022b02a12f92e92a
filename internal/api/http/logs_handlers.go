package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxLogBatch bounds one renderer log request
const maxLogBatch = 200

// RendererLogEntry is a log line forwarded by the browser renderer
type RendererLogEntry struct {
	Level      string         `json:"level"`
	Message    string         `json:"message"`
	InstanceID string         `json:"instanceId,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// RendererLogRequest is a batch of renderer log entries
type RendererLogRequest struct {
	Source  string             `json:"source"`
	Entries []RendererLogEntry `json:"entries"`
}

// StreamLogs writes renderer log entries into the server log
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req RendererLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log request format"})
		return
	}
	if req.Source != "renderer" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log source"})
		return
	}
	if len(req.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No log entries provided"})
		return
	}
	if len(req.Entries) > maxLogBatch {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Too many log entries"})
		return
	}

	logger := h.logger.Named("renderer")
	for _, entry := range req.Entries {
		logEntry(logger, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"entries_received": len(req.Entries),
		"timestamp":        time.Now().Unix(),
	})
}

func logEntry(logger *zap.Logger, entry RendererLogEntry) {
	fields := make([]zap.Field, 0, len(entry.Context)+2)
	if entry.InstanceID != "" {
		fields = append(fields, zap.String("instance_id", entry.InstanceID))
	}
	if entry.Timestamp != "" {
		fields = append(fields, zap.String("renderer_timestamp", entry.Timestamp))
	}
	for key, value := range entry.Context {
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, v))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	switch entry.Level {
	case "error":
		logger.Error(entry.Message, fields...)
	case "warn":
		logger.Warn(entry.Message, fields...)
	case "debug", "verbose":
		logger.Debug(entry.Message, fields...)
	default:
		logger.Info(entry.Message, fields...)
	}
}
