package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/dentavia/case-api/pkg/errors"
)

func performWithError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID(), ErrorHandler())
	engine.GET("/boom", func(c *gin.Context) {
		c.Error(err)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestErrorHandlerNotFound(t *testing.T) {
	w := performWithError(t, apperrors.NotFound("case", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// Ownership mismatches must be indistinguishable from missing records.
func TestErrorHandlerForbiddenRendersNotFound(t *testing.T) {
	w := performWithError(t, apperrors.Forbidden("case not assigned to caller", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
	assert.NotContains(t, w.Body.String(), "assigned")
}

func TestErrorHandlerBadRequest(t *testing.T) {
	w := performWithError(t, apperrors.BadRequest("unknown status", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown status")
}

func TestErrorHandlerUnauthorized(t *testing.T) {
	w := performWithError(t, apperrors.Unauthorized(nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestErrorHandlerUnknownErrorIsInternal(t *testing.T) {
	w := performWithError(t, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	// Raw error text never leaks.
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}
