package intake

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dentavia/case-api/internal/guard"
	"github.com/dentavia/case-api/internal/handler"
	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/service/intake"
)

type Handler struct {
	service *intake.Service
}

func NewHandler(service *intake.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/intake", h.Submit)
}

// Submit is the public intake endpoint. Honeypot hits get a fake success so
// bots cannot tell they were detected; other rejections state their reason.
func (h *Handler) Submit(c *gin.Context) {
	var req model.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if !req.HasContact() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("at least one contact field is required"))
		return
	}

	result, err := h.service.Submit(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		c.Error(err)
		return
	}

	if !result.OK {
		switch result.Reason {
		case guard.ReasonSpam:
			c.JSON(http.StatusOK, gin.H{"ok": true, "message": result.Message})
		case guard.ReasonRateLimit:
			c.JSON(http.StatusTooManyRequests, gin.H{
				"ok":      false,
				"reason":  result.Reason,
				"message": result.Message,
			})
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"ok":      false,
				"reason":  result.Reason,
				"message": result.Message,
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok":           true,
		"case_id":      result.CaseID,
		"case_ref":     result.CaseRef,
		"portal_token": result.PortalToken,
		"warning":      result.Warning,
	})
}
