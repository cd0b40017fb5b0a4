package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/middleware"
	"github.com/noah-isme/petcal-api/internal/service"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
	"github.com/noah-isme/petcal-api/pkg/response"
)

type calendarService interface {
	View(ctx context.Context, rawDate, rawGranularity string) (*dto.CalendarView, bool, error)
	Export(ctx context.Context, rawDate, rawGranularity, format string) (*service.ExportFile, error)
	Share(ctx context.Context, rawDate, rawGranularity, format string) (*dto.SharedExport, error)
	OpenShared(token string) (*service.ExportFile, error)
}

const (
	shareRoute  = "/calendar/export/share"
	sharedRoute = "/calendar/shared/"
)

// CalendarHandler serves materialized grids and agenda exports.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// View godoc
// @Summary Calendar grid for a day, week or month
// @Tags Calendar
// @Produce json
// @Param date query string false "Reference date (defaults to today)"
// @Param granularity query string false "day, week (default) or month"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/view [get]
func (h *CalendarHandler) View(c *gin.Context) {
	var query dto.CalendarViewQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	view, hit, err := h.service.View(c.Request.Context(), query.Date, query.Granularity)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, view, metaFor(c))
}

// Export godoc
// @Summary Download the agenda of a window
// @Tags Calendar
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param date query string false "Reference date (defaults to today)"
// @Param granularity query string false "day, week (default) or month"
// @Param format query string false "csv (default), pdf or ics"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /calendar/export [get]
func (h *CalendarHandler) Export(c *gin.Context) {
	var query dto.CalendarExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), query.Date, query.Granularity, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Share godoc
// @Summary Store an agenda export behind a signed download link
// @Tags Calendar
// @Produce json
// @Param date query string false "Reference date (defaults to today)"
// @Param granularity query string false "day, week (default) or month"
// @Param format query string false "csv (default), pdf or ics"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /calendar/export/share [post]
func (h *CalendarHandler) Share(c *gin.Context) {
	var query dto.CalendarExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	shared, err := h.service.Share(c.Request.Context(), query.Date, query.Granularity, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	shared.URL = strings.TrimSuffix(c.FullPath(), shareRoute) + sharedRoute + shared.Token
	response.Created(c, shared)
}

// Shared godoc
// @Summary Download a shared agenda export
// @Tags Calendar
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param token path string true "Signed link token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /calendar/shared/{token} [get]
func (h *CalendarHandler) Shared(c *gin.Context) {
	file, err := h.service.OpenShared(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
