package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/internal/service"
	"github.com/noah-isme/studymate-api/pkg/response"
)

type scheduleExporter interface {
	ExportSchedule(ctx context.Context, actor *models.Actor, query dto.ExportScheduleQuery) (*service.ExportResult, error)
}

// ExportHandler streams schedule exports.
type ExportHandler struct {
	service scheduleExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(service scheduleExporter) *ExportHandler {
	return &ExportHandler{service: service}
}

// Schedule godoc
// @Summary Download the tutor's schedule
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param from_date query string true "YYYY-MM-DD"
// @Param to_date query string true "YYYY-MM-DD"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /tutors/me/schedule/export [get]
func (h *ExportHandler) Schedule(c *gin.Context) {
	actor := actorFromContext(c)
	if actor == nil {
		return
	}
	var query dto.ExportScheduleQuery
	if !bindQuery(c, &query, "invalid export query") {
		return
	}
	result, err := h.service.ExportSchedule(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("X-Export-Rows", fmt.Sprintf("%d", result.Rows))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
