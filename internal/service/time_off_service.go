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
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

type timeOffRepository interface {
	List(ctx context.Context, tutorID string, filter models.DateRangeFilter) ([]models.TutorTimeOff, error)
	ListByDate(ctx context.Context, tutorID string, date time.Time) ([]models.TutorTimeOff, error)
	FindByID(ctx context.Context, id string) (*models.TutorTimeOff, error)
	Create(ctx context.Context, block *models.TutorTimeOff) error
	Delete(ctx context.Context, id string) error
}

// TimeOffService manages single-day breaks inside a tutor's availability.
type TimeOffService struct {
	repo         timeOffRepository
	availability availabilityReader
	leave        leaveReader
	sessions     tutorSessionReader
	locker       TutorLocker
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewTimeOffService instantiates TimeOffService.
func NewTimeOffService(repo timeOffRepository, availability availabilityReader, leave leaveReader, sessions tutorSessionReader, locker TutorLocker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TimeOffService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewLocalTutorLocker()
	}
	return &TimeOffService{
		repo:         repo,
		availability: availability,
		leave:        leave,
		sessions:     sessions,
		locker:       locker,
		metrics:      metrics,
		validator:    newSchedulingValidator(validate),
		logger:       logger,
	}
}

// List returns the actor's time-off within an optional date range.
func (s *TimeOffService) List(ctx context.Context, actor *models.Actor, query dto.DateRangeQuery) ([]models.TutorTimeOff, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	filter, err := dateRangeFilter(s.validator, query)
	if err != nil {
		return nil, err
	}
	blocks, err := s.repo.List(ctx, tutorID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list time-off")
	}
	return blocks, nil
}

// Create stores a time-off block. Checks short-circuit in this order: leave,
// availability on the weekday, range, containment, other time-off, sessions.
func (s *TimeOffService) Create(ctx context.Context, actor *models.Actor, req dto.CreateTimeOffRequest) (*models.TutorTimeOff, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid time-off payload")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	iv, err := parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	block := &models.TutorTimeOff{TutorID: tutorID, Date: date, StartTime: req.StartTime, EndTime: req.EndTime, Reason: req.Reason}
	err = withTutorLock(ctx, s.locker, s.metrics, tutorID, func() error {
		if err := s.validate(ctx, tutorID, date, iv); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, block); err != nil {
			return appErrors.Internal(err, "failed to create time-off")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("time-off created", zap.String("tutor_id", tutorID), zap.String("time_off_id", block.ID), zap.String("date", req.Date))
	return block, nil
}

// Delete removes a time-off block owned by the actor.
func (s *TimeOffService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return err
	}
	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "time-off not found", "failed to load time-off")
	}
	if block.TutorID != tutorID {
		return appErrors.Clone(appErrors.ErrForbidden, "you do not own this time-off")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete time-off")
	}
	return nil
}

func (s *TimeOffService) validate(ctx context.Context, tutorID string, date time.Time, iv timeutil.Interval) error {
	leaves, err := s.leave.ListOverlapping(ctx, tutorID, date, timeutil.EndOfDay(date))
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor leave")
	}
	if checkLeave(leaves, date) != nil {
		return s.reject(appErrors.Clone(appErrors.ErrOnLeave, "you have taken leave on this date"))
	}

	windows, err := s.availability.ListActiveByDay(ctx, tutorID, timeutil.DayOfWeek(date))
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor availability")
	}
	if len(windows) == 0 {
		return s.reject(appErrors.Clone(appErrors.ErrNoAvailability, "you have no availability on this day"))
	}

	if iv.Empty() {
		return s.reject(appErrors.Clone(appErrors.ErrInvalidRange, "start time must be before end time"))
	}

	if checkAvailability(windows, iv) != nil {
		return s.reject(appErrors.Clone(appErrors.ErrOutsideAvailability, "time-off must be inside your availability window"))
	}

	blocks, err := s.repo.ListByDate(ctx, tutorID, date)
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor time-off")
	}
	for _, b := range blocks {
		existing, err := b.Interval()
		if err != nil {
			continue
		}
		if existing.Overlaps(iv) {
			return s.reject(appErrors.Clone(appErrors.ErrOverlappingTimeOff, fmt.Sprintf("time-off overlaps existing break %s", existing)))
		}
	}

	sessions, err := s.sessions.ListByTutorDate(ctx, tutorID, date, models.ActiveSessionStatuses)
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor sessions")
	}
	if checkSessions(sessions, iv, "") != nil {
		return s.reject(appErrors.Clone(appErrors.ErrSessionConflict, "you have a session scheduled during this time"))
	}
	return nil
}

func (s *TimeOffService) reject(err *appErrors.Error) error {
	s.metrics.RecordConflict(err.Code)
	return err
}

func dateRangeFilter(v *validator.Validate, query dto.DateRangeQuery) (models.DateRangeFilter, error) {
	if err := v.Struct(query); err != nil {
		return models.DateRangeFilter{}, validationError(err, "invalid date range")
	}
	from, err := parseOptionalDate(query.FromDate)
	if err != nil {
		return models.DateRangeFilter{}, err
	}
	to, err := parseOptionalDate(query.ToDate)
	if err != nil {
		return models.DateRangeFilter{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return models.DateRangeFilter{}, appErrors.Clone(appErrors.ErrInvalidRange, "from_date must not be after to_date")
	}
	if to != nil {
		end := timeutil.EndOfDay(*to)
		to = &end
	}
	return models.DateRangeFilter{FromDate: from, ToDate: to}, nil
}
