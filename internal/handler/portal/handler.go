package portal

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dentavia/case-api/pkg/errors"

	"github.com/dentavia/case-api/internal/handler"
	"github.com/dentavia/case-api/internal/middleware"
	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/service/cases"
	"github.com/dentavia/case-api/internal/service/projection"
)

// Handler serves the patient portal. The portal token pins the caller to one
// case ref; there is no way to ask for a different case.
type Handler struct {
	cases *cases.Service
}

func NewHandler(caseSvc *cases.Service) *Handler {
	return &Handler{cases: caseSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/case", h.GetCase)
}

func (h *Handler) GetCase(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok || ident.Role != model.RolePatient || ident.CaseRef == "" {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("portal token required"))
		return
	}

	record, err := h.cases.GetByRef(c.Request.Context(), ident.CaseRef)
	if err != nil {
		c.Error(err)
		return
	}

	view, err := projection.Project(projection.Input{Case: record}, model.RolePatient)
	if err != nil {
		c.Error(apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}
