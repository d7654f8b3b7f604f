package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/use-agent/croaudit/models"
)

// respondError writes the error body for err with the status of its kind.
// Errors outside the taxonomy are reported as INTERNAL_ERROR without leaking
// their text.
func respondError(c *gin.Context, err error) {
	ae := models.AsAnalysisError(err)
	_ = c.Error(err)
	c.JSON(ae.Kind.HTTPStatus(), ae.ToResponse())
}

func badBody(err error) error {
	return models.NewError(models.KindInvalidInput, "Request body must be a valid JSON object.", err)
}
