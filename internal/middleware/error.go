package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/dentavia/case-api/pkg/errors"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler maps collected errors to responses. Forbidden deliberately
// renders as not-found: ownership mismatches must not reveal that the record
// exists. The real reason is logged with the trace id.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("trace_id", traceID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Str("client_ip", c.ClientIP()).
				Msg("Request error")
		}

		lastErr := c.Errors.Last()
		status, message := mapError(lastErr.Err)

		c.JSON(status, ErrorResponse{
			Code:    status,
			Message: message,
			TraceID: traceID,
		})
	}
}

func mapError(err error) (int, string) {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrNotFound:
		return http.StatusNotFound, "not found"
	case apperrors.ErrForbidden:
		// Indistinguishable from a missing record on purpose.
		return http.StatusNotFound, "not found"
	case apperrors.ErrBadRequest, apperrors.ErrPartialWrite:
		return http.StatusBadRequest, err.Error()
	case apperrors.ErrUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case apperrors.ErrConflict:
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
