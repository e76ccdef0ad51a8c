package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/pkg/response"
)

type timeOffService interface {
	List(ctx context.Context, actor *models.Actor, query dto.DateRangeQuery) ([]models.TutorTimeOff, error)
	Create(ctx context.Context, actor *models.Actor, req dto.CreateTimeOffRequest) (*models.TutorTimeOff, error)
	Delete(ctx context.Context, actor *models.Actor, id string) error
}

type leaveService interface {
	List(ctx context.Context, actor *models.Actor, query dto.DateRangeQuery) ([]models.TutorLeave, error)
	Create(ctx context.Context, actor *models.Actor, req dto.CreateLeaveRequest) (*models.TutorLeave, error)
	Delete(ctx context.Context, actor *models.Actor, id string) error
}

// TimeOffHandler exposes partial-day time off and multi-day leave.
type TimeOffHandler struct {
	timeOff timeOffService
	leave   leaveService
}

// NewTimeOffHandler constructs the handler.
func NewTimeOffHandler(timeOff timeOffService, leave leaveService) *TimeOffHandler {
	return &TimeOffHandler{timeOff: timeOff, leave: leave}
}

// ListTimeOff godoc
// @Summary List time-off blocks
// @Tags TimeOff
// @Produce json
// @Param from_date query string false "YYYY-MM-DD"
// @Param to_date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /tutors/me/time-off [get]
func (h *TimeOffHandler) ListTimeOff(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var query dto.DateRangeQuery
	if !bindQuery(c, &query, "invalid date filter") {
		return
	}
	blocks, err := h.timeOff.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks)
}

// CreateTimeOff godoc
// @Summary Block part of a day
// @Tags TimeOff
// @Accept json
// @Produce json
// @Param payload body dto.CreateTimeOffRequest true "Block"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tutors/me/time-off [post]
func (h *TimeOffHandler) CreateTimeOff(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var req dto.CreateTimeOffRequest
	if !bindJSON(c, &req, "invalid time-off payload") {
		return
	}
	block, err := h.timeOff.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// DeleteTimeOff godoc
// @Summary Remove a time-off block
// @Tags TimeOff
// @Param id path string true "Time-off ID"
// @Success 204
// @Router /tutors/me/time-off/{id} [delete]
func (h *TimeOffHandler) DeleteTimeOff(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	if err := h.timeOff.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListLeave godoc
// @Summary List leave ranges
// @Tags TimeOff
// @Produce json
// @Param from_date query string false "YYYY-MM-DD"
// @Param to_date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /tutors/me/leave [get]
func (h *TimeOffHandler) ListLeave(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var query dto.DateRangeQuery
	if !bindQuery(c, &query, "invalid date filter") {
		return
	}
	leaves, err := h.leave.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves)
}

// CreateLeave godoc
// @Summary Take whole days off
// @Tags TimeOff
// @Accept json
// @Produce json
// @Param payload body dto.CreateLeaveRequest true "Leave"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tutors/me/leave [post]
func (h *TimeOffHandler) CreateLeave(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var req dto.CreateLeaveRequest
	if !bindJSON(c, &req, "invalid leave payload") {
		return
	}
	leave, err := h.leave.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// DeleteLeave godoc
// @Summary Cancel a leave range
// @Tags TimeOff
// @Param id path string true "Leave ID"
// @Success 204
// @Router /tutors/me/leave/{id} [delete]
func (h *TimeOffHandler) DeleteLeave(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	if err := h.leave.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
