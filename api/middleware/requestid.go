package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID assigns every request an ID, reusing a client-supplied
// X-Request-ID when present, echoes it in the response and logs the
// request's outcome under it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()

		if len(c.Errors) > 0 {
			slog.Warn("request failed",
				"request_id", id,
				"method", c.Request.Method,
				"path", c.FullPath(),
				"status", c.Writer.Status(),
				"error", c.Errors.Last().Err,
			)
		}
	}
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
