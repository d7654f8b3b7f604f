package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/croaudit/analysis"
	"github.com/use-agent/croaudit/api/handler"
	"github.com/use-agent/croaudit/api/middleware"
	"github.com/use-agent/croaudit/config"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger
//	API:     RateLimit
//
// Health stays outside the rate limit so monitoring probes always work.
func NewRouter(p *analysis.Pipeline, model handler.ModelStatus, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(model, startTime))

	limited := r.Group("")
	limited.Use(middleware.RateLimit(cfg.RateLimit))

	limited.POST("/fetch-content", handler.FetchContent(p))
	limited.POST("/analyze", handler.Analyze(p))

	return r
}
