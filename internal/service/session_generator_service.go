package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/internal/repository"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.TuitionClass, error)
}

type generatedSessionStore interface {
	ListRegularDates(ctx context.Context, classID string, from, to time.Time) ([]time.Time, error)
	Create(ctx context.Context, session *models.Session) error
	SetMeetingLink(ctx context.Context, id, link string) error
}

type slotChecker interface {
	Check(ctx context.Context, cand SlotCandidate) error
}

// MeetingLinkIssuer returns a joinable meeting URL for a session.
type MeetingLinkIssuer interface {
	IssueLink(ctx context.Context, sessionID string) (string, error)
}

// SessionGenerator materialises a group class's weekly template into REGULAR
// sessions across a rolling window. It only ever adds sessions.
type SessionGenerator struct {
	classes    classReader
	sessions   generatedSessionStore
	checker    slotChecker
	links      MeetingLinkIssuer
	locker     TutorLocker
	metrics    *MetricsService
	cache      *CacheService
	windowDays int
	now        func() time.Time
	logger     *zap.Logger
}

// NewSessionGenerator constructs a generator with a forward window of windowDays.
func NewSessionGenerator(classes classReader, sessions generatedSessionStore, checker slotChecker, links MeetingLinkIssuer, locker TutorLocker, metrics *MetricsService, cache *CacheService, windowDays int, logger *zap.Logger) *SessionGenerator {
	if windowDays <= 0 {
		windowDays = 7
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewLocalTutorLocker()
	}
	return &SessionGenerator{
		classes:    classes,
		sessions:   sessions,
		checker:    checker,
		links:      links,
		locker:     locker,
		metrics:    metrics,
		cache:      cache,
		windowDays: windowDays,
		now:        time.Now,
		logger:     logger,
	}
}

// EnsureGroupSessions creates the missing REGULAR sessions of a class inside
// [max(start, today), min(end, today+window)] and reports how many were created.
// Missing, non-group and non-bookable classes are a no-op.
func (g *SessionGenerator) EnsureGroupSessions(ctx context.Context, classID string) (int, error) {
	class, err := g.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, appErrors.Internal(err, "failed to load class")
	}
	if class.Type != models.ClassTypeGroup || !class.Status.Bookable() || !class.HasTemplate() {
		return 0, nil
	}

	from, to := g.window(class)
	targets := targetDates(class.Weekdays(), from, to)
	if len(targets) == 0 {
		return 0, nil
	}

	created := 0
	err = withTutorLock(ctx, g.locker, g.metrics, class.TutorID, func() error {
		existing, err := g.sessions.ListRegularDates(ctx, class.ID, from, to)
		if err != nil {
			return appErrors.Internal(err, "failed to load existing sessions")
		}
		have := make(map[string]bool, len(existing))
		for _, d := range existing {
			have[timeutil.FormatDate(d)] = true
		}
		for _, date := range targets {
			if have[timeutil.FormatDate(date)] {
				continue
			}
			if g.createForDate(ctx, class, date) {
				created++
			}
		}
		return nil
	})
	g.metrics.RecordGenerated(created)
	if err != nil {
		return created, err
	}
	if created > 0 {
		g.cache.Invalidate(ctx, upcomingCachePrefix+"*")
		g.logger.Info("group sessions generated", zap.String("class_id", class.ID), zap.Int("created", created))
	}
	return created, nil
}

func (g *SessionGenerator) createForDate(ctx context.Context, class *models.TuitionClass, date time.Time) bool {
	day := timeutil.FormatDate(date)
	iv, err := intervalFrom(*class.StartTime, *class.DurationMin)
	if err != nil {
		g.logger.Warn("class template is not schedulable", zap.String("class_id", class.ID), zap.Error(err))
		return false
	}
	if err := g.checker.Check(ctx, SlotCandidate{TutorID: class.TutorID, Date: date, Interval: iv, SkipAvailability: true}); err != nil {
		g.logger.Warn("skipping generated session", zap.String("class_id", class.ID), zap.String("date", day), zap.Error(err))
		return false
	}

	session := &models.Session{
		ClassID:     class.ID,
		TutorID:     class.TutorID,
		Date:        date,
		StartTime:   *class.StartTime,
		DurationMin: *class.DurationMin,
		SessionType: models.SessionTypeRegular,
		Status:      models.SessionStatusScheduled,
		CreatedBy:   models.CreatedBySystem,
	}
	if err := g.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrDuplicateSession) {
			g.logger.Debug("regular session already materialised", zap.String("class_id", class.ID), zap.String("date", day))
			return false
		}
		g.logger.Warn("failed to create generated session", zap.String("class_id", class.ID), zap.String("date", day), zap.Error(err))
		return false
	}

	link, err := g.links.IssueLink(ctx, session.ID)
	if err != nil {
		g.metrics.RecordMeetingLinkFailure()
		g.logger.Warn("meeting link issuance failed", zap.String("session_id", session.ID), zap.Error(err))
		return true
	}
	if err := g.sessions.SetMeetingLink(ctx, session.ID, link); err != nil {
		g.metrics.RecordMeetingLinkFailure()
		g.logger.Warn("failed to attach meeting link", zap.String("session_id", session.ID), zap.Error(err))
	}
	return true
}

func (g *SessionGenerator) window(class *models.TuitionClass) (time.Time, time.Time) {
	today := timeutil.StartOfDay(g.now())
	from := timeutil.StartOfDay(class.StartDate)
	if from.Before(today) {
		from = today
	}
	to := today.AddDate(0, 0, g.windowDays)
	if class.EndDate != nil {
		if end := timeutil.StartOfDay(*class.EndDate); end.Before(to) {
			to = end
		}
	}
	return from, to
}

// targetDates lists every date in [from, to] whose weekday is in days.
func targetDates(days []models.DayOfWeek, from, to time.Time) []time.Time {
	wanted := make(map[models.DayOfWeek]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}
	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wanted[timeutil.DayOfWeek(d)] {
			dates = append(dates, d)
		}
	}
	return dates
}
