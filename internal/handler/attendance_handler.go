package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/pkg/response"
)

type attendanceService interface {
	MarkBulk(ctx context.Context, actor *models.Actor, sessionID string, req dto.MarkAttendanceRequest) ([]models.Attendance, error)
	MarkAllPresent(ctx context.Context, actor *models.Actor, sessionID string) ([]models.Attendance, error)
	ListSessionAttendance(ctx context.Context, actor *models.Actor, sessionID string, query dto.PageQuery) ([]models.AttendanceRecord, *models.Pagination, error)
	Toggle(ctx context.Context, actor *models.Actor, id string) (*models.Attendance, error)
}

// AttendanceHandler exposes per-session attendance endpoints.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Mark godoc
// @Summary Record attendance for several students
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.MarkAttendanceRequest true "Attendance"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var req dto.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	records, err := h.service.MarkBulk(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// MarkAllPresent godoc
// @Summary Mark every enrolled student present
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/attendance/all-present [post]
func (h *AttendanceHandler) MarkAllPresent(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	records, err := h.service.MarkAllPresent(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// List godoc
// @Summary List a session's attendance
// @Tags Attendance
// @Produce json
// @Param id path string true "Session ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.PageEnvelope
// @Router /sessions/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var query dto.PageQuery
	if !bindQuery(c, &query, "invalid pagination") {
		return
	}
	rows, page, err := h.service.ListSessionAttendance(c.Request.Context(), actor, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, rows, page)
}

// Toggle godoc
// @Summary Flip one attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/{id}/toggle [patch]
func (h *AttendanceHandler) Toggle(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	record, err := h.service.Toggle(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}
