package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
)

func (s *scheduling) availabilityService() *AvailabilityService {
	return NewAvailabilityService(s.availability, s.sessions, nil, s.metrics, validator.New(), zap.NewNop())
}

func TestAvailabilityCreate(t *testing.T) {
	s := newScheduling()
	svc := s.availabilityService()
	ctx := context.Background()
	tutor := tutorActor("tutor-1")

	window, err := svc.Create(ctx, tutor, dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "09:00", EndTime: "12:00", TimeZone: "Asia/Jakarta"})
	require.NoError(t, err)
	assert.NotEmpty(t, window.ID)
	assert.True(t, window.IsActive)
	assert.Equal(t, "tutor-1", window.TutorID)

	_, err = svc.Create(ctx, tutor, dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "11:00", EndTime: "13:00", TimeZone: "Asia/Jakarta"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrOverlappingWindow))
	assert.Equal(t, int64(1), s.metrics.Snapshot().Conflicts[appErrors.ErrOverlappingWindow.Code])

	_, err = svc.Create(ctx, tutor, dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "12:00", EndTime: "14:00", TimeZone: "Asia/Jakarta"})
	require.NoError(t, err, "touching windows do not overlap")

	_, err = svc.Create(ctx, tutorActor("tutor-2"), dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "09:00", EndTime: "12:00", TimeZone: "UTC"})
	require.NoError(t, err, "other tutors are independent")
}

func TestAvailabilityCreateRejections(t *testing.T) {
	s := newScheduling()
	svc := s.availabilityService()
	ctx := context.Background()

	cases := []struct {
		name  string
		actor *models.Actor
		req   dto.CreateAvailabilityRequest
		code  *appErrors.Error
	}{
		{"student", studentActor("student-1"), dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "09:00", EndTime: "10:00", TimeZone: "UTC"}, appErrors.ErrForbidden},
		{"reversed", tutorActor("tutor-1"), dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "10:00", EndTime: "09:00", TimeZone: "UTC"}, appErrors.ErrInvalidRange},
		{"empty", tutorActor("tutor-1"), dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "10:00", EndTime: "10:00", TimeZone: "UTC"}, appErrors.ErrInvalidRange},
		{"clock", tutorActor("tutor-1"), dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "9am", EndTime: "10:00", TimeZone: "UTC"}, appErrors.ErrInvalidFormat},
		{"weekday", tutorActor("tutor-1"), dto.CreateAvailabilityRequest{DayOfWeek: "MONDAY", StartTime: "09:00", EndTime: "10:00", TimeZone: "UTC"}, appErrors.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.actor, tc.req)
			assert.True(t, appErrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestAvailabilityCreateConflictsWithSession(t *testing.T) {
	s := newScheduling()
	s.addSession(models.Session{ClassID: "class-1", TutorID: "tutor-1", Date: day("2025-01-06"), StartTime: "10:00", DurationMin: 60,
		SessionType: models.SessionTypeExtra, Status: models.SessionStatusScheduled, CreatedBy: models.CreatedByTutor})
	s.addSession(models.Session{ClassID: "class-1", TutorID: "tutor-1", Date: day("2025-01-07"), StartTime: "10:00", DurationMin: 60,
		SessionType: models.SessionTypeExtra, Status: models.SessionStatusCancelledByTutor, CreatedBy: models.CreatedByTutor})
	svc := s.availabilityService()
	ctx := context.Background()

	_, err := svc.Create(ctx, tutorActor("tutor-1"), dto.CreateAvailabilityRequest{DayOfWeek: "MON", StartTime: "10:30", EndTime: "12:00", TimeZone: "UTC"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrSessionConflict))

	_, err = svc.Create(ctx, tutorActor("tutor-1"), dto.CreateAvailabilityRequest{DayOfWeek: "TUE", StartTime: "10:00", EndTime: "12:00", TimeZone: "UTC"})
	require.NoError(t, err, "cancelled sessions do not block")
}

func TestAvailabilityUpdateToggleDelete(t *testing.T) {
	s := newScheduling()
	svc := s.availabilityService()
	ctx := context.Background()
	tutor := tutorActor("tutor-1")

	morning, err := svc.Create(ctx, tutor, dto.CreateAvailabilityRequest{DayOfWeek: "WED", StartTime: "08:00", EndTime: "10:00", TimeZone: "UTC"})
	require.NoError(t, err)
	evening, err := svc.Create(ctx, tutor, dto.CreateAvailabilityRequest{DayOfWeek: "WED", StartTime: "18:00", EndTime: "20:00", TimeZone: "UTC"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, tutor, evening.ID, dto.UpdateAvailabilityRequest{StartTime: stringPtr("09:30")})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrOverlappingWindow))

	updated, err := svc.Update(ctx, tutor, evening.ID, dto.UpdateAvailabilityRequest{StartTime: stringPtr("17:00"), TimeZone: stringPtr("Asia/Jakarta")})
	require.NoError(t, err)
	assert.Equal(t, "17:00", updated.StartTime)
	assert.Equal(t, "20:00", updated.EndTime)
	assert.Equal(t, "Asia/Jakarta", updated.TimeZone)

	_, err = svc.Update(ctx, tutor, evening.ID, dto.UpdateAvailabilityRequest{EndTime: stringPtr("16:00")})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidRange))

	_, err = svc.Update(ctx, tutorActor("tutor-2"), evening.ID, dto.UpdateAvailabilityRequest{StartTime: stringPtr("16:00")})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrForbidden))

	toggled, err := svc.ToggleActive(ctx, tutor, morning.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	_, err = svc.Create(ctx, tutor, dto.CreateAvailabilityRequest{DayOfWeek: "WED", StartTime: "09:00", EndTime: "11:00", TimeZone: "UTC"})
	require.NoError(t, err, "inactive windows do not block")

	_, err = svc.ToggleActive(ctx, tutor, morning.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrOverlappingWindow))

	require.NoError(t, svc.Delete(ctx, tutor, morning.ID))
	err = svc.Delete(ctx, tutor, morning.ID)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound))

	windows, page, err := svc.List(ctx, tutor, dto.AvailabilityQuery{DayOfWeek: "WED"})
	require.NoError(t, err)
	assert.Len(t, windows, 2)
	assert.Equal(t, 2, page.Total)
}
