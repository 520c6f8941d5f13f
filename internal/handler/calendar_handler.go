package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-scheduler/internal/dto"
	"github.com/noah-isme/class-scheduler/internal/middleware"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
	"github.com/noah-isme/class-scheduler/pkg/export"
	"github.com/noah-isme/class-scheduler/pkg/response"
)

type calendarService interface {
	ProfessorCalendar(ctx context.Context, professorID string, query dto.CalendarQuery) ([]models.CalendarEvent, bool, error)
	StudentCalendar(ctx context.Context, studentID string, query dto.CalendarQuery) ([]models.CalendarEvent, bool, error)
	Export(events []models.CalendarEvent, title string, format export.Format) ([]byte, error)
}

// CalendarHandler serves projected calendars.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler builds a new handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// ProfessorCalendar godoc
// @Summary Professor calendar
// @Tags Calendar
// @Produce json
// @Param id path string true "Professor ID"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/calendar [get]
func (h *CalendarHandler) ProfessorCalendar(c *gin.Context) {
	query, ok := bindCalendarQuery(c)
	if !ok {
		return
	}
	events, hit, err := h.service.ProfessorCalendar(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, events, middleware.ExtractMeta(c))
}

// ExportProfessorCalendar godoc
// @Summary Export professor calendar
// @Tags Calendar
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Professor ID"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /professors/{id}/calendar/export [get]
func (h *CalendarHandler) ExportProfessorCalendar(c *gin.Context) {
	query, ok := bindCalendarQuery(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unsupported export format"))
		return
	}
	professorID := c.Param("id")
	events, _, err := h.service.ProfessorCalendar(c.Request.Context(), professorID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := h.service.Export(events, "Calendar "+professorID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, format.Filename("calendar-"+professorID), format.ContentType(), body)
}

// StudentCalendar godoc
// @Summary My calendar
// @Tags Calendar
// @Produce json
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/me/calendar [get]
func (h *CalendarHandler) StudentCalendar(c *gin.Context) {
	claims, ok := requireClaims(c, models.RoleStudent)
	if !ok {
		return
	}
	query, ok := bindCalendarQuery(c)
	if !ok {
		return
	}
	events, hit, err := h.service.StudentCalendar(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, events, middleware.ExtractMeta(c))
}

func bindCalendarQuery(c *gin.Context) (dto.CalendarQuery, bool) {
	var query dto.CalendarQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid calendar query"))
		return query, false
	}
	return query, true
}
