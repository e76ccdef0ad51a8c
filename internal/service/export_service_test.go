package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
)

func exportFixture() *ExportService {
	s := newScheduling()
	link := "https://meet.jit.si/studymate-session-x"
	s.addSession(models.Session{ClassID: "class-1", TutorID: "tutor-1", Date: day("2025-01-06"), StartTime: "16:00", DurationMin: 90,
		SessionType: models.SessionTypeRegular, Status: models.SessionStatusScheduled, CreatedBy: models.CreatedBySystem, MeetingLink: &link})
	s.addSession(models.Session{ClassID: "class-2", TutorID: "tutor-1", Date: day("2025-01-08"), StartTime: "09:00", DurationMin: 60,
		SessionType: models.SessionTypeExtra, Status: models.SessionStatusCancelledByTutor, CreatedBy: models.CreatedByTutor})
	s.addSession(models.Session{ClassID: "class-3", TutorID: "tutor-2", Date: day("2025-01-07"), StartTime: "09:00", DurationMin: 60,
		SessionType: models.SessionTypeExtra, Status: models.SessionStatusScheduled, CreatedBy: models.CreatedByTutor})
	return NewExportService(s.sessions, nil, nil)
}

func TestExportScheduleCSV(t *testing.T) {
	svc := exportFixture()

	result, err := svc.ExportSchedule(context.Background(), tutorActor("tutor-1"), dto.ExportScheduleQuery{FromDate: "2025-01-01", ToDate: "2025-01-31"})
	require.NoError(t, err)
	assert.Equal(t, "schedule_2025-01-01_2025-01-31.csv", result.Filename)
	assert.Equal(t, 2, result.Rows)

	rows, err := csv.NewReader(bytes.NewReader(result.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Day", "Start", "End", "Class", "Type", "Status", "Meeting"}, rows[0])
	assert.Equal(t, []string{"2025-01-06", "MON", "16:00", "17:30", "Class class-1", "REGULAR", "SCHEDULED", "https://meet.jit.si/studymate-session-x"}, rows[1])
	assert.Equal(t, "CANCELLED_BY_TUTOR", rows[2][6])
}

func TestExportSchedulePDF(t *testing.T) {
	svc := exportFixture()

	result, err := svc.ExportSchedule(context.Background(), tutorActor("tutor-1"), dto.ExportScheduleQuery{FromDate: "2025-01-01", ToDate: "2025-01-31", Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Body, []byte("%PDF")))
}

func TestExportScheduleRejections(t *testing.T) {
	svc := exportFixture()
	ctx := context.Background()

	_, err := svc.ExportSchedule(ctx, studentActor("student-1"), dto.ExportScheduleQuery{FromDate: "2025-01-01", ToDate: "2025-01-31"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	_, err = svc.ExportSchedule(ctx, tutorActor("tutor-1"), dto.ExportScheduleQuery{FromDate: "2025-02-01", ToDate: "2025-01-31"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidRange))

	_, err = svc.ExportSchedule(ctx, tutorActor("tutor-1"), dto.ExportScheduleQuery{FromDate: "2024-01-01", ToDate: "2025-06-30"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidRange))

	_, err = svc.ExportSchedule(ctx, tutorActor("tutor-1"), dto.ExportScheduleQuery{FromDate: "2025-01-01", ToDate: "2025-01-31", Format: "xlsx"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation))
}
