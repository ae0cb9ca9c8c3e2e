package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/brokeranalysis/trust-service/internal/monitoring"
	"github.com/brokeranalysis/trust-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MonitoringHandler serves aggregate telemetry statistics.
type MonitoringHandler struct {
	monitor *monitoring.Service
}

// NewMonitoringHandler creates a new monitoring handler.
func NewMonitoringHandler(monitor *monitoring.Service) *MonitoringHandler {
	return &MonitoringHandler{
		monitor: monitor,
	}
}

// GetPerformanceStats returns performance aggregates for the last N hours,
// optionally filtered to one operation.
func (h *MonitoringHandler) GetPerformanceStats(c *gin.Context) {
	since := sinceFromQuery(c)
	operation := c.Query("operation")

	stats, err := h.monitor.GetPerformanceStats(c.Request.Context(), since, operation)
	if err != nil {
		logger.Error("failed to get performance stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to retrieve performance stats",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetQualityStats returns quality aggregates for the last N hours.
func (h *MonitoringHandler) GetQualityStats(c *gin.Context) {
	since := sinceFromQuery(c)

	stats, err := h.monitor.GetQualityStats(c.Request.Context(), since)
	if err != nil {
		logger.Error("failed to get quality stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to retrieve quality stats",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// sinceFromQuery reads the hours query parameter, defaulting to 24 and
// clamping to at most 30 days.
func sinceFromQuery(c *gin.Context) time.Time {
	hours, err := strconv.Atoi(c.DefaultQuery("hours", "24"))
	if err != nil || hours < 1 || hours > 720 {
		hours = 24
	}
	return time.Now().Add(-time.Duration(hours) * time.Hour)
}
