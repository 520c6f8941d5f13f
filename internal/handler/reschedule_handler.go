package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/class-scheduler/internal/dto"
	"github.com/noah-isme/class-scheduler/internal/middleware"
	"github.com/noah-isme/class-scheduler/internal/models"
	appErrors "github.com/noah-isme/class-scheduler/pkg/errors"
	"github.com/noah-isme/class-scheduler/pkg/response"
)

type rescheduleService interface {
	Reschedule(ctx context.Context, studentID string, req dto.RescheduleRequest) (*dto.RescheduleResult, error)
	Cancel(ctx context.Context, recordID string, actor *models.JWTClaims) (*models.RescheduleRecord, error)
	History(ctx context.Context, studentID, professorID string) ([]models.RescheduleRecord, error)
	ProfessorReschedules(ctx context.Context, professorID string) ([]models.RescheduleRecord, error)
	Usage(ctx context.Context, studentID, professorID string) (models.RescheduleUsage, error)
}

// RescheduleHandler exposes the rescheduling transaction and its history.
type RescheduleHandler struct {
	service rescheduleService
}

// NewRescheduleHandler builds a new handler.
func NewRescheduleHandler(service rescheduleService) *RescheduleHandler {
	return &RescheduleHandler{service: service}
}

// Create godoc
// @Summary Reschedule a class
// @Description Cancels the original occurrence in the student's ledger and records the new one atomically.
// @Tags Reschedules
// @Accept json
// @Produce json
// @Param payload body dto.RescheduleRequest true "Reschedule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /reschedules [post]
func (h *RescheduleHandler) Create(c *gin.Context) {
	claims, ok := requireClaims(c, models.RoleStudent)
	if !ok {
		return
	}
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}
	result, err := h.service.Reschedule(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, result.Record.ID, result.Record)
	response.Created(c, result)
}

// Cancel godoc
// @Summary Cancel a reschedule
// @Tags Reschedules
// @Produce json
// @Param id path string true "Reschedule ID"
// @Success 200 {object} response.Envelope
// @Router /reschedules/{id}/cancel [post]
func (h *RescheduleHandler) Cancel(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	record, err := h.service.Cancel(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, record.ID, record)
	response.JSON(c, http.StatusOK, record, nil)
}

// History godoc
// @Summary List my reschedules with a professor
// @Tags Reschedules
// @Produce json
// @Param professor_id query string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /reschedules [get]
func (h *RescheduleHandler) History(c *gin.Context) {
	claims, professorID, ok := h.studentQuery(c)
	if !ok {
		return
	}
	records, err := h.service.History(c.Request.Context(), claims.UserID, professorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Usage godoc
// @Summary Get my reschedule quota usage
// @Tags Reschedules
// @Produce json
// @Param professor_id query string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /reschedules/usage [get]
func (h *RescheduleHandler) Usage(c *gin.Context) {
	claims, professorID, ok := h.studentQuery(c)
	if !ok {
		return
	}
	usage, err := h.service.Usage(c.Request.Context(), claims.UserID, professorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, usage, nil)
}

// ProfessorReschedules godoc
// @Summary List reschedules booked with a professor
// @Tags Reschedules
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/reschedules [get]
func (h *RescheduleHandler) ProfessorReschedules(c *gin.Context) {
	records, err := h.service.ProfessorReschedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

func (h *RescheduleHandler) studentQuery(c *gin.Context) (*models.JWTClaims, string, bool) {
	claims, ok := requireClaims(c, models.RoleStudent)
	if !ok {
		return nil, "", false
	}
	var query dto.RescheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.ProfessorID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "professor_id is required"))
		return nil, "", false
	}
	return claims, query.ProfessorID, true
}
