package handlers

import (
	"net/http"

	"stories-profit-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler exposes the in-memory request log.
type MonitoringHandler struct {
	monitoring *services.MonitoringService
}

// NewMonitoringHandler creates a new MonitoringHandler.
func NewMonitoringHandler(monitoring *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{monitoring: monitoring}
}

// GetLogs handles GET /api/monitoring/logs?limit=100.
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	limit := limitParam(c, 100)
	c.JSON(http.StatusOK, gin.H{
		"logs":      h.monitoring.RecentLogs(limit),
		"endpoints": h.monitoring.EndpointCounts(),
	})
}
