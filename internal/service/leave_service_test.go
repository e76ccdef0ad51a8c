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
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

func (s *scheduling) leaveService() *LeaveService {
	return NewLeaveService(s.leave, s.sessions, nil, s.metrics, validator.New(), zap.NewNop())
}

func TestLeaveServiceBlockedByActiveSessions(t *testing.T) {
	s := newScheduling()
	s.classes = newFakeClassRepo(models.TuitionClass{ID: "class-1", TutorID: "tutor-1", Type: models.ClassTypePrivate, Status: models.ClassStatusActive, Capacity: 1})
	booked := s.addSession(models.Session{TutorID: "tutor-1", ClassID: "class-1", Date: day("2025-02-11"), StartTime: "10:00", DurationMin: 60, SessionType: models.SessionTypeRegular, Status: models.SessionStatusScheduled})
	leaves := s.leaveService()
	sessions := s.sessionService(fixedClock("2025-02-01T08:00:00Z"))
	ctx := context.Background()
	actor := tutorActor("tutor-1")
	req := dto.CreateLeaveRequest{StartDate: "2025-02-10", EndDate: "2025-02-12"}

	_, err := leaves.Create(ctx, actor, req)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrHasActiveSessions))

	_, err = sessions.Cancel(ctx, actor, booked.ID)
	require.NoError(t, err)

	leave, err := leaves.Create(ctx, actor, req)
	require.NoError(t, err)
	assert.Equal(t, day("2025-02-10"), leave.StartDate)
	assert.Equal(t, timeutil.EndOfDay(day("2025-02-12")), leave.EndDate)
}

func TestLeaveServiceRejections(t *testing.T) {
	s := newScheduling()
	s.leave = newFakeLeaveRepo(models.TutorLeave{TutorID: "tutor-1", StartDate: day("2025-03-01"), EndDate: timeutil.EndOfDay(day("2025-03-05"))})
	svc := s.leaveService()
	ctx := context.Background()
	actor := tutorActor("tutor-1")

	_, err := svc.Create(ctx, actor, dto.CreateLeaveRequest{StartDate: "2025-03-10", EndDate: "2025-03-09"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidRange))

	_, err = svc.Create(ctx, actor, dto.CreateLeaveRequest{StartDate: "2025-03-05", EndDate: "2025-03-07"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrOverlappingLeave), "closed ranges sharing a day overlap")

	_, err = svc.Create(ctx, actor, dto.CreateLeaveRequest{StartDate: "2025/03/06", EndDate: "2025-03-07"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidFormat))

	_, err = svc.Create(ctx, actor, dto.CreateLeaveRequest{StartDate: "2025-03-06", EndDate: "2025-03-06"})
	require.NoError(t, err)

	listed, err := svc.List(ctx, actor, dto.DateRangeQuery{FromDate: "2025-03-06", ToDate: "2025-03-31"})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}
