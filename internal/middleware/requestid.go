package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
)

// RequestID adds a unique request ID to each request. The id doubles as the
// correlation id in partial-write warnings, so it is copied onto the request
// context where the services can reach it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Set(ContextRequestID, rid)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), ContextRequestID, rid)) //nolint:staticcheck
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
