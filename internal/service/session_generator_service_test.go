package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

func groupClass(id string, days []string, start, end time.Time) models.TuitionClass {
	startTime := "16:00"
	duration := 90
	endDate := end
	return models.TuitionClass{
		ID:          id,
		TutorID:     "tutor-1",
		Title:       "Group " + id,
		Type:        models.ClassTypeGroup,
		Status:      models.ClassStatusActive,
		StartDate:   start,
		EndDate:     &endDate,
		DaysOfWeek:  pq.StringArray(days),
		StartTime:   &startTime,
		DurationMin: &duration,
		Capacity:    10,
	}
}

func (s *scheduling) generator(now func() time.Time, rooms MeetingRooms) *SessionGenerator {
	g := NewSessionGenerator(s.classes, s.sessions, s.checker, rooms, nil, s.metrics, nil, 7, zap.NewNop())
	g.now = now
	return g
}

func TestSessionGeneratorFridayWindow(t *testing.T) {
	s := newScheduling()
	s.classes = newFakeClassRepo(groupClass("class-1", []string{"FRI"}, day("2025-01-01"), day("2025-02-01")))
	gen := s.generator(fixedClock("2025-01-03T07:00:00Z"), fakeRooms{})
	ctx := context.Background()

	created, err := gen.EnsureGroupSessions(ctx, "class-1")
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	sessions, total, err := s.sessions.List(ctx, models.SessionFilter{ClassID: "class-1"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	assert.Equal(t, "2025-01-03", timeutil.FormatDate(sessions[0].Date))
	assert.Equal(t, "2025-01-10", timeutil.FormatDate(sessions[1].Date))
	for _, session := range sessions {
		assert.Equal(t, models.SessionStatusScheduled, session.Status)
		assert.Equal(t, models.CreatedBySystem, session.CreatedBy)
		assert.Equal(t, models.SessionTypeRegular, session.SessionType)
		assert.Nil(t, session.StudentID)
		require.NotNil(t, session.MeetingLink)
		assert.Equal(t, "https://meet.jit.si/studymate-session-"+session.ID, *session.MeetingLink)
	}

	created, err = gen.EnsureGroupSessions(ctx, "class-1")
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, uint64(2), s.metrics.Snapshot().SessionsGenerated)
}

func TestSessionGeneratorIdempotentWindow(t *testing.T) {
	s := newScheduling()
	today := day("2025-01-08")
	s.classes = newFakeClassRepo(groupClass("class-1", []string{"MON", "WED"}, today, today.AddDate(0, 0, 30)))
	gen := s.generator(fixedClock("2025-01-08T05:00:00Z"), fakeRooms{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := gen.EnsureGroupSessions(ctx, "class-1")
		require.NoError(t, err)
	}

	sessions, total, err := s.sessions.List(ctx, models.SessionFilter{ClassID: "class-1", Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 3, total, "WED 8th, MON 13th, WED 15th")
	seen := map[string]bool{}
	for _, session := range sessions {
		key := timeutil.FormatDate(session.Date)
		assert.False(t, seen[key], "duplicate session on %s", key)
		seen[key] = true
		assert.False(t, session.Date.Before(today))
		assert.False(t, session.Date.After(today.AddDate(0, 0, 7)))
		wd := timeutil.DayOfWeek(session.Date)
		assert.True(t, wd == timeutil.Monday || wd == timeutil.Wednesday, "unexpected weekday %s", wd)
	}
}

func TestSessionGeneratorNoOps(t *testing.T) {
	s := newScheduling()
	private := groupClass("private", []string{"MON"}, day("2025-01-01"), day("2025-03-01"))
	private.Type = models.ClassTypePrivate
	draft := groupClass("draft", []string{"MON"}, day("2025-01-01"), day("2025-03-01"))
	draft.Status = models.ClassStatusDraft
	ended := groupClass("ended", []string{"MON"}, day("2024-01-01"), day("2024-03-01"))
	future := groupClass("future", []string{"MON"}, day("2025-06-01"), day("2025-09-01"))
	s.classes = newFakeClassRepo(private, draft, ended, future)
	gen := s.generator(fixedClock("2025-01-06T07:00:00Z"), fakeRooms{})

	for _, id := range []string{"missing", "private", "draft", "ended", "future"} {
		created, err := gen.EnsureGroupSessions(context.Background(), id)
		require.NoError(t, err, id)
		assert.Zero(t, created, id)
	}
	assert.Empty(t, s.sessions.items)
}

func TestSessionGeneratorDegradesPerDate(t *testing.T) {
	s := newScheduling()
	s.classes = newFakeClassRepo(groupClass("class-1", []string{"MON", "TUE"}, day("2025-01-06"), day("2025-01-07")))
	s.leave = newFakeLeaveRepo(models.TutorLeave{TutorID: "tutor-1", StartDate: day("2025-01-07"), EndDate: timeutil.EndOfDay(day("2025-01-07"))})
	s.checker = NewConflictChecker(s.availability, s.timeOff, s.leave, s.sessions, s.metrics, nil)
	gen := s.generator(fixedClock("2025-01-06T07:00:00Z"), fakeRooms{fail: true})

	created, err := gen.EnsureGroupSessions(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, 1, created, "leave day skipped, monday kept")

	sessions, _, err := s.sessions.List(context.Background(), models.SessionFilter{ClassID: "class-1"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].MeetingLink, "link failure leaves the session without a link")
	assert.Equal(t, uint64(1), s.metrics.Snapshot().MeetingLinkFailures)
}

func TestSessionGeneratorSkipsRacedDuplicate(t *testing.T) {
	s := newScheduling()
	s.classes = newFakeClassRepo(groupClass("class-1", []string{"MON"}, day("2025-01-06"), day("2025-01-06")))
	racing := &racingSessionRepo{fakeSessionRepo: s.sessions}
	gen := NewSessionGenerator(s.classes, racing, passChecker{}, fakeRooms{}, nil, s.metrics, nil, 7, zap.NewNop())
	gen.now = fixedClock("2025-01-06T07:00:00Z")

	created, err := gen.EnsureGroupSessions(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, s.sessions.items, 1)
}

type passChecker struct{}

func (passChecker) Check(ctx context.Context, cand SlotCandidate) error { return nil }

// racingSessionRepo hides existing dates so the generator hits the unique index.
type racingSessionRepo struct {
	*fakeSessionRepo
}

func (r *racingSessionRepo) ListRegularDates(ctx context.Context, classID string, from, to time.Time) ([]time.Time, error) {
	if len(r.items) == 0 {
		_ = r.fakeSessionRepo.Create(ctx, &models.Session{ClassID: classID, TutorID: "tutor-1", Date: from, StartTime: "16:00", DurationMin: 90,
			SessionType: models.SessionTypeRegular, Status: models.SessionStatusScheduled, CreatedBy: models.CreatedBySystem})
	}
	return nil, nil
}

func TestSessionGeneratorLoadFailure(t *testing.T) {
	s := newScheduling()
	gen := NewSessionGenerator(failingClassRepo{}, s.sessions, s.checker, fakeRooms{}, nil, s.metrics, nil, 7, zap.NewNop())
	_, err := gen.EnsureGroupSessions(context.Background(), "class-1")
	assert.Error(t, err)
}

type failingClassRepo struct{}

func (failingClassRepo) FindByID(ctx context.Context, id string) (*models.TuitionClass, error) {
	return nil, errors.New("connection refused")
}

type recordingCacheRepo struct {
	patterns []string
}

func (r *recordingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (r *recordingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (r *recordingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

func TestSessionGeneratorInvalidatesUpcomingCache(t *testing.T) {
	s := newScheduling()
	s.classes = newFakeClassRepo(groupClass("class-1", []string{"FRI"}, day("2025-01-01"), day("2025-02-01")))
	repo := &recordingCacheRepo{}
	cache := NewCacheService(repo, s.metrics, time.Minute, zap.NewNop(), true)
	gen := NewSessionGenerator(s.classes, s.sessions, s.checker, fakeRooms{}, nil, s.metrics, cache, 7, zap.NewNop())
	gen.now = fixedClock("2025-01-03T07:00:00Z")
	ctx := context.Background()

	created, err := gen.EnsureGroupSessions(ctx, "class-1")
	require.NoError(t, err)
	require.Equal(t, 2, created)
	assert.Equal(t, []string{upcomingCachePrefix + "*"}, repo.patterns)

	created, err = gen.EnsureGroupSessions(ctx, "class-1")
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, repo.patterns, 1, "nothing new, nothing to invalidate")
}

func TestSessionGeneratorSkipsTemplatePastMidnight(t *testing.T) {
	s := newScheduling()
	class := groupClass("late-1", []string{"FRI"}, day("2025-01-01"), day("2025-02-01"))
	lateStart := "23:00"
	long := 120
	class.StartTime = &lateStart
	class.DurationMin = &long
	s.classes = newFakeClassRepo(class)
	gen := s.generator(fixedClock("2025-01-03T07:00:00Z"), fakeRooms{})
	ctx := context.Background()

	created, err := gen.EnsureGroupSessions(ctx, "late-1")
	require.NoError(t, err)
	assert.Zero(t, created)

	_, total, err := s.sessions.List(ctx, models.SessionFilter{ClassID: "late-1"})
	require.NoError(t, err)
	assert.Zero(t, total)
}
