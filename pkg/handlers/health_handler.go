package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck is the liveness endpoint. It stays independent of the dataset
// and the AI provider so orchestration probes never flap on their failures.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Root returns basic service metadata for API discovery.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Market Insight Dashboard API",
		"health":  "/healthz",
	})
}
