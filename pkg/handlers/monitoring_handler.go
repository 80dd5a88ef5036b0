package handlers

import (
	"net/http"

	"market-insight-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler serves the aggregated request log.
type MonitoringHandler struct {
	monitoring *services.MonitoringService
}

// NewMonitoringHandler creates a new MonitoringHandler.
func NewMonitoringHandler(monitoring *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{monitoring: monitoring}
}

// GetLogs returns dashboard aggregations over the trailing period (hours).
func (h *MonitoringHandler) GetLogs(c *gin.Context) {
	periodHours, err := parseBoundedIntQuery(c, "period", 24, 1, 168)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.monitoring.GetDashboardData(periodHours))
}
