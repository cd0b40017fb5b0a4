package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/middleware"
	"github.com/noah-isme/petcal-api/internal/models"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
	"github.com/noah-isme/petcal-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context, start, end time.Time) (*dto.EventList, bool, error)
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, req dto.EventRequest) (*models.Event, error)
	Update(ctx context.Context, id string, scope models.Scope, date *time.Time, req dto.EventRequest) (*models.Event, error)
	Delete(ctx context.Context, id string, opts models.DeleteOptions) error
	ChangeDone(ctx context.Context, id string, done bool) (*models.Event, error)
}

// EventHandler exposes occurrence queries and scoped mutations.
type EventHandler struct {
	service eventService
	loc     *time.Location
}

// NewEventHandler constructs the handler. Plain dates in queries are read in loc.
func NewEventHandler(service eventService, loc *time.Location) *EventHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &EventHandler{service: service, loc: loc}
}

// List godoc
// @Summary List occurrences in a window
// @Description Expands series and returns every occurrence starting inside [start_date, end_date].
// @Tags Events
// @Produce json
// @Param start_date query string true "Window start (RFC 3339 or YYYY-MM-DD)"
// @Param end_date query string true "Window end (RFC 3339 or YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var query dto.EventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	if strings.TrimSpace(query.StartDate) == "" || strings.TrimSpace(query.EndDate) == "" {
		response.Error(c, appErrors.ErrMissingBounds)
		return
	}
	start, err := calendar.ParseBoundary(query.StartDate, h.loc)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_date"))
		return
	}
	end, err := calendar.ParseBoundary(query.EndDate, h.loc)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_date"))
		return
	}

	list, hit, err := h.service.List(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	if len(list.Truncated) > 0 {
		middleware.SetMeta(c, "truncated_series", list.Truncated)
	}
	response.JSON(c, http.StatusOK, list, metaFor(c))
}

// Get godoc
// @Summary Get an occurrence or stored event
// @Tags Events
// @Produce json
// @Param id path string true "Event or occurrence ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	ev, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ev)
}

// Create godoc
// @Summary Create an event or series
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	ev, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ev)
}

// Update godoc
// @Summary Update one occurrence or a whole series
// @Description scope=single detaches the occurrence at date; scope=series rewrites the series.
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event or occurrence ID"
// @Param scope query string false "single (default) or series"
// @Param date query string false "Occurrence date for single-scope edits of a series"
// @Param payload body dto.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	scope, date, ok := h.mutationQuery(c)
	if !ok {
		return
	}
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	ev, err := h.service.Update(c.Request.Context(), c.Param("id"), scope, date, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ev)
}

// Delete godoc
// @Summary Delete one occurrence or a whole series
// @Tags Events
// @Param id path string true "Event or occurrence ID"
// @Param scope query string false "single (default) or series"
// @Param date query string false "Occurrence date for single-scope deletes of a series"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	scope, date, ok := h.mutationQuery(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), models.DeleteOptions{Scope: scope, Date: date}); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Done godoc
// @Summary Set the completion flag of one occurrence
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event or occurrence ID"
// @Param payload body dto.DoneRequest true "Completion flag"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/done [patch]
func (h *EventHandler) Done(c *gin.Context) {
	var req dto.DoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	ev, err := h.service.ChangeDone(c.Request.Context(), c.Param("id"), req.IsDone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ev)
}

func (h *EventHandler) mutationQuery(c *gin.Context) (models.Scope, *time.Time, bool) {
	var query dto.MutationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return "", nil, false
	}
	scope, ok := models.ParseScope(query.Scope)
	if !ok {
		response.Error(c, appErrors.ErrInvalidScope)
		return "", nil, false
	}
	if strings.TrimSpace(query.Date) == "" {
		return scope, nil, true
	}
	date, err := calendar.ParseBoundary(query.Date, h.loc)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date"))
		return "", nil, false
	}
	return scope, &date, true
}

func metaFor(c *gin.Context) map[string]interface{} {
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	return meta
}
