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

type availabilityService interface {
	List(ctx context.Context, actor *models.Actor, query dto.AvailabilityQuery) ([]models.TutorAvailability, *models.Pagination, error)
	Create(ctx context.Context, actor *models.Actor, req dto.CreateAvailabilityRequest) (*models.TutorAvailability, error)
	Update(ctx context.Context, actor *models.Actor, id string, req dto.UpdateAvailabilityRequest) (*models.TutorAvailability, error)
	Delete(ctx context.Context, actor *models.Actor, id string) error
	ToggleActive(ctx context.Context, actor *models.Actor, id string) (*models.TutorAvailability, error)
}

// AvailabilityHandler exposes the tutor's weekly availability windows.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(service availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// List godoc
// @Summary List availability windows
// @Tags Availability
// @Produce json
// @Param day_of_week query string false "MON..SUN"
// @Param is_active query bool false "Active filter"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.PageEnvelope
// @Router /tutors/me/availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var query dto.AvailabilityQuery
	if !bindQuery(c, &query, "invalid availability filter") {
		return
	}
	windows, page, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, windows, page)
}

// Create godoc
// @Summary Add an availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.CreateAvailabilityRequest true "Window"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tutors/me/availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var req dto.CreateAvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	window, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// Update godoc
// @Summary Update an availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Window ID"
// @Param payload body dto.UpdateAvailabilityRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /tutors/me/availability/{id} [patch]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var req dto.UpdateAvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	window, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, middleware.ExtractMeta(c))
}

// Delete godoc
// @Summary Delete an availability window
// @Tags Availability
// @Param id path string true "Window ID"
// @Success 204
// @Router /tutors/me/availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Toggle godoc
// @Summary Activate or deactivate an availability window
// @Tags Availability
// @Produce json
// @Param id path string true "Window ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/me/availability/{id}/toggle [patch]
func (h *AvailabilityHandler) Toggle(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	window, err := h.service.ToggleActive(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, window, middleware.ExtractMeta(c))
}
