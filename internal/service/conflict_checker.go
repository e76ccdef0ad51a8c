package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

type availabilityReader interface {
	ListActiveByDay(ctx context.Context, tutorID string, day models.DayOfWeek) ([]models.TutorAvailability, error)
}

type timeOffReader interface {
	ListByDate(ctx context.Context, tutorID string, date time.Time) ([]models.TutorTimeOff, error)
}

type leaveReader interface {
	ListOverlapping(ctx context.Context, tutorID string, start, end time.Time) ([]models.TutorLeave, error)
}

type tutorSessionReader interface {
	ListByTutorDate(ctx context.Context, tutorID string, date time.Time, statuses []models.SessionStatus) ([]models.Session, error)
}

// SlotCandidate is a proposed session interval for a tutor on one date.
type SlotCandidate struct {
	TutorID          string
	Date             time.Time
	Interval         timeutil.Interval
	ExcludeSessionID string
	// SkipAvailability bypasses window containment for tutor-declared sessions.
	SkipAvailability bool
}

// ConflictChecker decides whether a candidate interval may hold a session.
// Checks run in order: availability containment, time-off, leave, other sessions.
type ConflictChecker struct {
	availability availabilityReader
	timeOff      timeOffReader
	leave        leaveReader
	sessions     tutorSessionReader
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewConflictChecker constructs the shared conflict predicate.
func NewConflictChecker(availability availabilityReader, timeOff timeOffReader, leave leaveReader, sessions tutorSessionReader, metrics *MetricsService, logger *zap.Logger) *ConflictChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictChecker{availability: availability, timeOff: timeOff, leave: leave, sessions: sessions, metrics: metrics, logger: logger}
}

// Check returns nil when the candidate is free, otherwise the first failing kind.
func (c *ConflictChecker) Check(ctx context.Context, cand SlotCandidate) error {
	date := timeutil.StartOfDay(cand.Date)
	if cand.Interval.Empty() {
		return c.reject(appErrors.Clone(appErrors.ErrInvalidRange, "start time must be before end time"))
	}

	if !cand.SkipAvailability {
		windows, err := c.availability.ListActiveByDay(ctx, cand.TutorID, timeutil.DayOfWeek(date))
		if err != nil {
			return appErrors.Internal(err, "failed to load tutor availability")
		}
		if err := checkAvailability(windows, cand.Interval); err != nil {
			return c.reject(err)
		}
	}

	blocks, err := c.timeOff.ListByDate(ctx, cand.TutorID, date)
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor time-off")
	}
	if err := checkTimeOff(blocks, cand.Interval); err != nil {
		return c.reject(err)
	}

	leaves, err := c.leave.ListOverlapping(ctx, cand.TutorID, date, timeutil.EndOfDay(date))
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor leave")
	}
	if err := checkLeave(leaves, date); err != nil {
		return c.reject(err)
	}

	sessions, err := c.sessions.ListByTutorDate(ctx, cand.TutorID, date, models.ActiveSessionStatuses)
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor sessions")
	}
	if err := checkSessions(sessions, cand.Interval, cand.ExcludeSessionID); err != nil {
		return c.reject(err)
	}
	return nil
}

// AvailableSlots lists start times on date where a session of durationMin
// passes every check, stepping through each active window by stepMin.
func (c *ConflictChecker) AvailableSlots(ctx context.Context, tutorID string, date time.Time, durationMin, stepMin int) ([]models.AvailableSlot, error) {
	date = timeutil.StartOfDay(date)
	if stepMin <= 0 {
		stepMin = 30
	}
	windows, err := c.availability.ListActiveByDay(ctx, tutorID, timeutil.DayOfWeek(date))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tutor availability")
	}
	slots := []models.AvailableSlot{}
	if len(windows) == 0 {
		return slots, nil
	}
	leaves, err := c.leave.ListOverlapping(ctx, tutorID, date, timeutil.EndOfDay(date))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tutor leave")
	}
	if len(leaves) > 0 {
		return slots, nil
	}
	blocks, err := c.timeOff.ListByDate(ctx, tutorID, date)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tutor time-off")
	}
	sessions, err := c.sessions.ListByTutorDate(ctx, tutorID, date, models.ActiveSessionStatuses)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tutor sessions")
	}

	seen := make(map[int]bool)
	for _, w := range windows {
		window, err := w.Interval()
		if err != nil {
			c.logger.Warn("skipping malformed availability window", zap.String("availability_id", w.ID), zap.Error(err))
			continue
		}
		for start := window.Start; start+durationMin <= window.End; start += stepMin {
			iv := timeutil.Interval{Start: start, End: start + durationMin}
			if seen[start] || checkTimeOff(blocks, iv) != nil || checkSessions(sessions, iv, "") != nil {
				continue
			}
			seen[start] = true
			slots = append(slots, models.AvailableSlot{
				Date:      timeutil.FormatDate(date),
				StartTime: timeutil.FormatMinutes(iv.Start),
				EndTime:   timeutil.FormatMinutes(iv.End),
			})
		}
	}
	return slots, nil
}

func (c *ConflictChecker) reject(err *appErrors.Error) error {
	c.metrics.RecordConflict(err.Code)
	return err
}

func checkAvailability(windows []models.TutorAvailability, iv timeutil.Interval) *appErrors.Error {
	if len(windows) == 0 {
		return appErrors.Clone(appErrors.ErrNoAvailability, "")
	}
	for _, w := range windows {
		window, err := w.Interval()
		if err != nil {
			continue
		}
		if window.Contains(iv) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrOutsideAvailability, "")
}

func checkTimeOff(blocks []models.TutorTimeOff, iv timeutil.Interval) *appErrors.Error {
	for _, b := range blocks {
		block, err := b.Interval()
		if err != nil {
			continue
		}
		if block.Overlaps(iv) {
			return appErrors.Clone(appErrors.ErrTimeOffConflict, fmt.Sprintf("selected time overlaps tutor time-off %s", block))
		}
	}
	return nil
}

func checkLeave(leaves []models.TutorLeave, date time.Time) *appErrors.Error {
	for _, l := range leaves {
		if l.Covers(date) {
			return appErrors.Clone(appErrors.ErrOnLeave, "")
		}
	}
	return nil
}

func checkSessions(sessions []models.Session, iv timeutil.Interval, excludeID string) *appErrors.Error {
	for _, s := range sessions {
		if s.ID == excludeID && excludeID != "" {
			continue
		}
		if s.Status.Terminal() {
			continue
		}
		booked, err := s.Interval()
		if err != nil {
			continue
		}
		if booked.Overlaps(iv) {
			return appErrors.Clone(appErrors.ErrSessionOverlap, fmt.Sprintf("tutor already has a session at %s", booked))
		}
	}
	return nil
}
