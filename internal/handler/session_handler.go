package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/middleware"
	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/pkg/response"
)

type sessionService interface {
	Create(ctx context.Context, actor *models.Actor, req dto.CreateSessionRequest) (*models.Session, error)
	Approve(ctx context.Context, actor *models.Actor, id string) (*models.Session, error)
	Reject(ctx context.Context, actor *models.Actor, id string) (*models.Session, error)
	Cancel(ctx context.Context, actor *models.Actor, id string) (*models.Session, error)
	Reschedule(ctx context.Context, actor *models.Actor, id string, req dto.RescheduleSessionRequest) (*models.Session, error)
	Complete(ctx context.Context, actor *models.Actor, id string) (*models.Session, error)
	CreateExtraSession(ctx context.Context, actor *models.Actor, classID string, req dto.CreateAdHocSessionRequest) (*models.Session, error)
	CreateDboutSession(ctx context.Context, actor *models.Actor, classID string, req dto.CreateAdHocSessionRequest) (*models.Session, error)
	Upcoming(ctx context.Context, actor *models.Actor) ([]models.Session, error)
	ListClassSessions(ctx context.Context, actor *models.Actor, classID string, query dto.SessionQuery) ([]models.Session, *models.Pagination, error)
	JoinConfig(ctx context.Context, actor *models.Actor, id string) (*models.JoinConfig, error)
	AvailableSlots(ctx context.Context, tutorID string, query dto.AvailableSlotsQuery) ([]models.AvailableSlot, error)
}

// SessionHandler exposes session booking and lifecycle endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Create godoc
// @Summary Book a private session
// @Description Students create a request awaiting approval; tutors create a scheduled session.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var req dto.CreateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Approve godoc
// @Summary Approve a pending session request
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/approve [post]
func (h *SessionHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a pending session request
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/reject [post]
func (h *SessionHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

// Cancel godoc
// @Summary Cancel a session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// Complete godoc
// @Summary Mark a started session as held
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/complete [post]
func (h *SessionHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Reschedule godoc
// @Summary Move a private session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.RescheduleSessionRequest true "New time"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/reschedule [patch]
func (h *SessionHandler) Reschedule(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var req dto.RescheduleSessionRequest
	if !bindJSON(c, &req, "invalid reschedule payload") {
		return
	}
	session, err := h.service.Reschedule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, middleware.ExtractMeta(c))
}

// CreateExtra godoc
// @Summary Add an extra session to a group class
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.CreateAdHocSessionRequest true "Session"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/sessions/extra [post]
func (h *SessionHandler) CreateExtra(c *gin.Context) {
	h.adHoc(c, h.service.CreateExtraSession)
}

// CreateDbout godoc
// @Summary Add a makeup session to a group class
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.CreateAdHocSessionRequest true "Session"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/sessions/dbout [post]
func (h *SessionHandler) CreateDbout(c *gin.Context) {
	h.adHoc(c, h.service.CreateDboutSession)
}

// Upcoming godoc
// @Summary List the caller's upcoming sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sessions/upcoming [get]
func (h *SessionHandler) Upcoming(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	sessions, err := h.service.Upcoming(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, middleware.ExtractMeta(c))
}

// ListClassSessions godoc
// @Summary List a class's sessions
// @Description Group classes are topped up to the rolling window first.
// @Tags Sessions
// @Produce json
// @Param id path string true "Class ID"
// @Param status query string false "Session status"
// @Param session_type query string false "REGULAR, EXTRA or DBOUT"
// @Param from_date query string false "YYYY-MM-DD"
// @Param to_date query string false "YYYY-MM-DD"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.PageEnvelope
// @Router /classes/{id}/sessions [get]
func (h *SessionHandler) ListClassSessions(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var query dto.SessionQuery
	if !bindQuery(c, &query, "invalid session filter") {
		return
	}
	sessions, page, err := h.service.ListClassSessions(c.Request.Context(), actor, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, sessions, page)
}

// JoinConfig godoc
// @Summary Meeting room details for a participant
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/join [get]
func (h *SessionHandler) JoinConfig(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	cfg, err := h.service.JoinConfig(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// AvailableSlots godoc
// @Summary Bookable start times for a tutor on a date
// @Tags Sessions
// @Produce json
// @Param id path string true "Tutor ID"
// @Param date query string true "YYYY-MM-DD"
// @Param duration_min query int true "Duration in minutes"
// @Param step_min query int false "Step in minutes"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/available-slots [get]
func (h *SessionHandler) AvailableSlots(c *gin.Context) {
	if actorFromContext(c) == nil {
		return
	}
	var query dto.AvailableSlotsQuery
	if !bindQuery(c, &query, "invalid slot query") {
		return
	}
	slots, err := h.service.AvailableSlots(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

type sessionTransition func(ctx context.Context, actor *models.Actor, id string) (*models.Session, error)

func (h *SessionHandler) transition(c *gin.Context, apply sessionTransition) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	session, err := apply(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, middleware.ExtractMeta(c))
}

type adHocCreator func(ctx context.Context, actor *models.Actor, classID string, req dto.CreateAdHocSessionRequest) (*models.Session, error)

func (h *SessionHandler) adHoc(c *gin.Context, create adHocCreator) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var req dto.CreateAdHocSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := create(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}
