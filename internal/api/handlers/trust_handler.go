package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/brokeranalysis/trust-service/internal/service"
	"github.com/brokeranalysis/trust-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TrustHandler handles trust score API requests.
type TrustHandler struct {
	service *service.TrustService
}

// NewTrustHandler creates a new trust score handler.
func NewTrustHandler(service *service.TrustService) *TrustHandler {
	return &TrustHandler{
		service: service,
	}
}

// RecalculateResponse is the batch recalculation response.
type RecalculateResponse struct {
	Success      bool                         `json:"success"`
	Message      string                       `json:"message"`
	UpdatedCount int                          `json:"updated_count"`
	ErrorCount   int                          `json:"error_count"`
	TotalBrokers int                          `json:"total_brokers"`
	Results      []service.BrokerScoreSummary `json:"results"`
}

// RecalculateTrustScores recomputes and persists trust scores for every
// broker. Returns 404 when there are no brokers and 500 when the broker
// table cannot be fetched; per-broker persistence failures are reported in
// error_count, not as a request failure.
func (h *TrustHandler) RecalculateTrustScores(c *gin.Context) {
	result, err := h.service.RecalculateAll(c.Request.Context())
	if err != nil {
		logger.Error("trust score recalculation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, RecalculateResponse{
			Success: false,
			Message: "Failed to fetch brokers: " + err.Error(),
		})
		return
	}

	if result.TotalBrokers == 0 {
		c.JSON(http.StatusNotFound, RecalculateResponse{
			Success: false,
			Message: "No brokers found",
		})
		return
	}

	c.JSON(http.StatusOK, RecalculateResponse{
		Success:      true,
		Message:      fmt.Sprintf("Updated trust scores for %d of %d brokers", result.UpdatedCount, result.TotalBrokers),
		UpdatedCount: result.UpdatedCount,
		ErrorCount:   result.ErrorCount,
		TotalBrokers: result.TotalBrokers,
		Results:      result.Results,
	})
}

// GetBrokerTrustScore returns the stored trust score for one broker.
func (h *TrustHandler) GetBrokerTrustScore(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid broker id",
			Message: "broker id must be a positive integer",
		})
		return
	}

	score, err := h.service.GetBrokerScore(c.Request.Context(), uint(id))
	if err != nil {
		logger.Error("failed to get broker trust score", zap.Uint64("broker_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to retrieve trust score",
			Message: err.Error(),
		})
		return
	}

	if score == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "Broker not found",
			Message: "no broker exists with this id",
		})
		return
	}

	c.JSON(http.StatusOK, score)
}

// HealthCheck reports service liveness.
func (h *TrustHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "trust-service",
	})
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
