package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/croaudit/models"
)

// Version is reported by /health.
const Version = "0.1.0"

// ModelStatus is the part of the model client /health reports on.
type ModelStatus interface {
	Configured() bool
	Model() string
}

// Health returns a handler for GET /health.
//
// Reports "degraded" while no model credential is configured: /fetch-content
// still works but /analyze will answer 503.
func Health(model ModelStatus, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		configured := model.Configured()

		status := "healthy"
		if !configured {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:          status,
			Uptime:          time.Since(startTime).Round(time.Second).String(),
			Version:         Version,
			Model:           model.Model(),
			ModelConfigured: configured,
		})
	}
}
