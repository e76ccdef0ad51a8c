package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/export"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

const maxExportDays = 366

type scheduleExportReader interface {
	ListForExport(ctx context.Context, tutorID string, from, to time.Time) ([]models.SessionWithClass, error)
}

// ExportResult is a rendered schedule ready to download.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders a tutor's schedule as CSV or PDF.
type ExportService struct {
	sessions  scheduleExportReader
	renderers map[string]export.Renderer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the CSV and PDF renderers.
func NewExportService(sessions scheduleExportReader, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions: sessions,
		renderers: map[string]export.Renderer{
			"csv": export.NewCSVRenderer(),
			"pdf": export.NewPDFRenderer(),
		},
		validator: newSchedulingValidator(validate),
		logger:    logger,
	}
}

// ExportSchedule renders the tutor's sessions dated within the query range.
func (s *ExportService) ExportSchedule(ctx context.Context, actor *models.Actor, query dto.ExportScheduleQuery) (*ExportResult, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid export query")
	}
	from, err := parseDate(query.FromDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(query.ToDate)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "from_date must not be after to_date")
	}
	if to.Sub(from) > maxExportDays*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("export range cannot exceed %d days", maxExportDays))
	}

	format := query.Format
	if format == "" {
		format = "csv"
	}
	renderer := s.renderers[format]

	rows, err := s.sessions.ListForExport(ctx, tutorID, from, to)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load sessions")
	}
	table := scheduleTable(rows, query.FromDate, query.ToDate)
	body, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render schedule")
	}
	s.logger.Info("schedule exported", zap.String("tutor_id", tutorID), zap.String("format", format), zap.Int("rows", len(rows)))
	return &ExportResult{
		Filename:    fmt.Sprintf("schedule_%s_%s.%s", query.FromDate, query.ToDate, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
		Rows:        len(rows),
	}, nil
}

func scheduleTable(rows []models.SessionWithClass, from, to string) export.Table {
	table := export.Table{
		Title:   fmt.Sprintf("Schedule %s to %s", from, to),
		Headers: []string{"Date", "Day", "Start", "End", "Class", "Type", "Status", "Meeting"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		end := ""
		if iv, err := r.Interval(); err == nil {
			end = timeutil.FormatMinutes(iv.End)
		}
		link := ""
		if r.MeetingLink != nil {
			link = *r.MeetingLink
		}
		table.Rows = append(table.Rows, []string{
			timeutil.FormatDate(r.Date),
			string(timeutil.DayOfWeek(r.Date)),
			r.StartTime,
			end,
			r.ClassTitle,
			string(r.SessionType),
			string(r.Status),
			link,
		})
	}
	return table
}
