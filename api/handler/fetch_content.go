package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/croaudit/analysis"
	"github.com/use-agent/croaudit/models"
)

// FetchContent returns a handler for POST /fetch-content.
//
// Flow:
//  1. Parse {url}.
//  2. Fetch through the header profile sequence.
//  3. Extract marketing text, falling back to title/meta description.
func FetchContent(p *analysis.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FetchContentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, badBody(err))
			return
		}

		ext, err := p.FetchText(c.Request.Context(), req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.FetchContentResponse{
			Text:    ext.Text,
			Warning: ext.Warning,
		})
	}
}
