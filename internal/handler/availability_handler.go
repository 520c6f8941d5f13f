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

type availabilityService interface {
	GetAvailability(ctx context.Context, professorID string) ([]models.AvailabilitySlot, error)
	SaveAvailability(ctx context.Context, professorID string, req dto.SaveAvailabilityRequest) ([]models.AvailabilitySlot, error)
	GetRules(ctx context.Context, professorID string) (models.ReschedulingRules, error)
	UpdateRules(ctx context.Context, professorID string, req dto.UpdateRulesRequest) (models.ReschedulingRules, error)
	BookableSlots(ctx context.Context, professorID string) ([]models.ProjectedDay, bool, error)
}

// AvailabilityHandler exposes professor availability, rules and bookable slots.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler builds a new handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// GetAvailability godoc
// @Summary Get professor availability
// @Tags Availability
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/availability [get]
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	slots, err := h.service.GetAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// SaveAvailability godoc
// @Summary Replace professor availability
// @Description Validates every slot and rejects the whole list when any slot conflicts with fixed classes, confirmed reschedules or another slot.
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Professor ID"
// @Param payload body dto.SaveAvailabilityRequest true "Availability slots"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /professors/{id}/availability [put]
func (h *AvailabilityHandler) SaveAvailability(c *gin.Context) {
	var req dto.SaveAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}
	slots, err := h.service.SaveAvailability(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, c.Param("id"), slots)
	response.JSON(c, http.StatusOK, slots, nil)
}

// GetRules godoc
// @Summary Get rescheduling rules
// @Tags Availability
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/rules [get]
func (h *AvailabilityHandler) GetRules(c *gin.Context) {
	rules, err := h.service.GetRules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// UpdateRules godoc
// @Summary Update rescheduling rules
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Professor ID"
// @Param payload body dto.UpdateRulesRequest true "Rules"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/rules [put]
func (h *AvailabilityHandler) UpdateRules(c *gin.Context) {
	var req dto.UpdateRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rules payload"))
		return
	}
	rules, err := h.service.UpdateRules(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, c.Param("id"), rules)
	response.JSON(c, http.StatusOK, rules, nil)
}

// BookableSlots godoc
// @Summary List bookable slots
// @Description Projects the professor's availability over the booking window, honouring the minimum advance.
// @Tags Availability
// @Produce json
// @Param id path string true "Professor ID"
// @Success 200 {object} response.Envelope
// @Router /professors/{id}/slots [get]
func (h *AvailabilityHandler) BookableSlots(c *gin.Context) {
	days, hit, err := h.service.BookableSlots(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, days, middleware.ExtractMeta(c))
}
