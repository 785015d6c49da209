package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dentavia/case-api/internal/handler"
	"github.com/dentavia/case-api/internal/middleware"
	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/service/projection"
	"github.com/dentavia/case-api/internal/service/review"
)

// Handler serves the doctor workspace. Doctors address cases by public ref,
// never by internal id, and only see the restricted projection.
type Handler struct {
	reviews *review.Service
}

func NewHandler(reviews *review.Service) *Handler {
	return &Handler{reviews: reviews}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/cases", h.ListAssigned)
	r.GET("/cases/:ref", h.GetAssigned)
	r.POST("/cases/:ref/review", h.SubmitReview)
}

func (h *Handler) ListAssigned(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	list, err := h.reviews.ListAssigned(c.Request.Context(), ident)
	if err != nil {
		c.Error(err)
		return
	}

	views := make([]interface{}, 0, len(list))
	for _, record := range list {
		view, err := projection.Project(projection.Input{Case: record}, model.RoleDoctor)
		if err != nil {
			c.Error(err)
			return
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(views))
}

func (h *Handler) GetAssigned(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	record, timeline, err := h.reviews.AssignedCase(c.Request.Context(), ident, c.Param("ref"))
	if err != nil {
		c.Error(err)
		return
	}

	view, err := projection.Project(projection.Input{Case: record, Timeline: timeline}, model.RoleDoctor)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

func (h *Handler) SubmitReview(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	var req model.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.reviews.Submit(c.Request.Context(), ident, c.Param("ref"), &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}
