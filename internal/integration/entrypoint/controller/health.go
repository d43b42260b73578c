package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker func(ctx context.Context) error

// HealthController handles health check endpoints.
type HealthController struct {
	database HealthChecker
	cache    HealthChecker
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
	Timestamp string `json:"timestamp"`
}

// NewHealthController creates a new health controller instance.
func NewHealthController(database, cache HealthChecker) *HealthController {
	return &HealthController{
		database: database,
		cache:    cache,
	}
}

// Check handles GET /health requests. It answers 503 when a dependency is
// down.
func (h *HealthController) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "ok",
		Database:  checkStatus(ctx, h.database),
		Cache:     checkStatus(ctx, h.cache),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if response.Database != "connected" || response.Cache != "connected" {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, response)
}

func checkStatus(ctx context.Context, check HealthChecker) string {
	if check == nil || check(ctx) != nil {
		return "disconnected"
	}
	return "connected"
}
