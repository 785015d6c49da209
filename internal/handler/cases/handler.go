package cases

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/dentavia/case-api/pkg/errors"

	"github.com/dentavia/case-api/internal/handler"
	"github.com/dentavia/case-api/internal/middleware"
	"github.com/dentavia/case-api/internal/model"
	"github.com/dentavia/case-api/internal/repository"
	"github.com/dentavia/case-api/internal/service/cases"
	"github.com/dentavia/case-api/internal/service/contacts"
	"github.com/dentavia/case-api/internal/service/projection"
)

// Handler serves the staff-facing case CRM: listing, the full detail view,
// lifecycle patches, the timeline, outbound contact logging and internal
// notes.
type Handler struct {
	cases    *cases.Service
	contacts *contacts.Service
	notes    repository.NoteRepository
}

func NewHandler(caseSvc *cases.Service, contactSvc *contacts.Service, notes repository.NoteRepository) *Handler {
	return &Handler{
		cases:    caseSvc,
		contacts: contactSvc,
		notes:    notes,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/cases", h.List)
	r.GET("/cases/:id", h.Get)
	r.PATCH("/cases/:id", h.Patch)
	r.GET("/cases/:id/timeline", h.ListTimeline)
	r.POST("/cases/:id/timeline", h.AppendTimeline)
	r.GET("/cases/:id/contacts", h.ListContacts)
	r.POST("/cases/:id/contacts", h.LogContact)
	r.GET("/cases/:id/notes", h.ListNotes)
	r.POST("/cases/:id/notes", h.CreateNote)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.CaseFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid query parameters"))
		return
	}

	list, err := h.cases.List(c.Request.Context(), &filters)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(list))
}

// Get returns the role-projected detail view. Staff load the full record;
// the projection decides what leaves the server.
func (h *Handler) Get(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NotFound("case", err))
		return
	}

	ctx := c.Request.Context()
	record, err := h.cases.Get(ctx, id)
	if err != nil {
		c.Error(err)
		return
	}

	timeline, err := h.cases.Timeline(ctx, id, 0)
	if err != nil {
		c.Error(err)
		return
	}
	contactEvents, err := h.contacts.List(ctx, id)
	if err != nil {
		c.Error(err)
		return
	}
	notes, err := h.notes.ListByCase(ctx, id)
	if err != nil {
		c.Error(err)
		return
	}

	view, err := projection.Project(projection.Input{
		Case:     record,
		Timeline: timeline,
		Contacts: contactEvents,
		Notes:    notes,
	}, ident.Role)
	if err != nil {
		c.Error(apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(view))
}

func (h *Handler) Patch(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NotFound("case", err))
		return
	}

	var req model.UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, warning, err := h.cases.Patch(c.Request.Context(), ident, id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	if warning != nil {
		c.JSON(http.StatusOK, handler.NewSuccessResponseWithWarning(updated, warning))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ListTimeline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NotFound("case", err))
		return
	}

	events, err := h.cases.Timeline(c.Request.Context(), id, 0)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(events))
}

func (h *Handler) AppendTimeline(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NotFound("case", err))
		return
	}

	var req model.AppendTimelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	event, record, warning, err := h.cases.AppendEvent(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	data := gin.H{"event": event, "case": record}
	if warning != nil {
		c.JSON(http.StatusCreated, handler.NewSuccessResponseWithWarning(data, warning))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(data))
}

func (h *Handler) ListContacts(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NotFound("case", err))
		return
	}

	events, err := h.contacts.List(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(events))
}

func (h *Handler) LogContact(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NotFound("case", err))
		return
	}

	var req model.LogContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.contacts.Log(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	if result.Warning != nil {
		c.JSON(http.StatusCreated, handler.NewSuccessResponseWithWarning(result, result.Warning))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) ListNotes(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NotFound("case", err))
		return
	}

	notes, err := h.notes.ListByCase(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(notes))
}

func (h *Handler) CreateNote(c *gin.Context) {
	ident, ok := middleware.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperrors.NotFound("case", err))
		return
	}

	var req model.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	// Make sure the case exists before attaching a note to it.
	if _, err := h.cases.Get(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	note := &model.Note{
		ID:        uuid.New(),
		CaseID:    id,
		Note:      req.Note,
		CreatedBy: ident.Subject,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.notes.Create(c.Request.Context(), note); err != nil {
		c.Error(apperrors.Internal(err))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(note))
}
