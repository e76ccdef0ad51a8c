package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

// newSchedulingValidator returns validate (or a fresh validator) with the scheduling tags registered.
func newSchedulingValidator(validate *validator.Validate) *validator.Validate {
	if validate == nil {
		validate = validator.New()
	}
	dto.RegisterValidations(validate)
	return validate
}

// validationError maps a validator failure to INVALID_FORMAT for malformed
// dates and clocks and to VALIDATION_ERROR for everything else.
func validationError(err error, message string) error {
	if dto.IsFormatError(err) {
		return appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, appErrors.ErrInvalidFormat.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// lookupError converts repository lookups into NOT_FOUND or INTERNAL_ERROR.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

func parseDate(raw string) (time.Time, error) {
	date, err := timeutil.ParseDate(raw)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "date must use YYYY-MM-DD format")
	}
	return date, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := parseDate(raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func parseInterval(start, end string) (timeutil.Interval, error) {
	iv, err := timeutil.ParseInterval(start, end)
	if err != nil {
		return timeutil.Interval{}, appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "time must use 24h HH:mm format")
	}
	return iv, nil
}

func intervalFrom(start string, durationMin int) (timeutil.Interval, error) {
	iv, err := timeutil.IntervalFrom(start, durationMin)
	if err != nil {
		return timeutil.Interval{}, appErrors.Wrap(err, appErrors.ErrInvalidFormat.Code, appErrors.ErrInvalidFormat.Status, "time must use 24h HH:mm format")
	}
	if iv.Empty() {
		return timeutil.Interval{}, appErrors.Clone(appErrors.ErrInvalidRange, "duration must be positive")
	}
	if iv.End > 24*60 {
		return timeutil.Interval{}, appErrors.Clone(appErrors.ErrInvalidRange, "session must end on the same day")
	}
	return iv, nil
}

func stringPtr(v string) *string {
	return &v
}

// TutorLocker serialises check-then-write sequences for a single tutor.
type TutorLocker interface {
	Lock(ctx context.Context, tutorID string) (unlock func(), err error)
}

// LocalTutorLocker is an in-process TutorLocker used when Redis is disabled.
type LocalTutorLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalTutorLocker constructs an in-process tutor locker.
func NewLocalTutorLocker() *LocalTutorLocker {
	return &LocalTutorLocker{slots: make(map[string]chan struct{})}
}

// Lock blocks until the tutor's slot is free or ctx ends.
func (l *LocalTutorLocker) Lock(ctx context.Context, tutorID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[tutorID]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[tutorID] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// withTutorLock runs fn while holding the tutor's lock.
func withTutorLock(ctx context.Context, locker TutorLocker, metrics *MetricsService, tutorID string, fn func() error) error {
	if locker == nil {
		return fn()
	}
	start := time.Now()
	unlock, err := locker.Lock(ctx, tutorID)
	metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		return appErrors.Internal(err, "tutor schedule is busy, retry shortly")
	}
	defer unlock()
	return fn()
}

func requireTutor(actor *models.Actor) (string, error) {
	if !actor.IsTutor() {
		return "", appErrors.Clone(appErrors.ErrForbidden, "tutor profile required")
	}
	return actor.TutorID, nil
}
