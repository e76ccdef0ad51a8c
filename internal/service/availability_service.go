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

type availabilityRepository interface {
	List(ctx context.Context, tutorID string, filter models.AvailabilityFilter) ([]models.TutorAvailability, int, error)
	ListActiveByDay(ctx context.Context, tutorID string, day models.DayOfWeek) ([]models.TutorAvailability, error)
	FindByID(ctx context.Context, id string) (*models.TutorAvailability, error)
	Create(ctx context.Context, window *models.TutorAvailability) error
	Update(ctx context.Context, window *models.TutorAvailability) error
	Delete(ctx context.Context, id string) error
}

type tutorRangeSessionReader interface {
	ListByTutorRange(ctx context.Context, tutorID string, from, to *time.Time, statuses []models.SessionStatus) ([]models.Session, error)
}

// AvailabilityService manages a tutor's recurring weekly windows.
type AvailabilityService struct {
	repo      availabilityRepository
	sessions  tutorRangeSessionReader
	locker    TutorLocker
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService instantiates AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, sessions tutorRangeSessionReader, locker TutorLocker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewLocalTutorLocker()
	}
	return &AvailabilityService{repo: repo, sessions: sessions, locker: locker, metrics: metrics, validator: newSchedulingValidator(validate), logger: logger}
}

// List returns the actor's windows with pagination metadata.
func (s *AvailabilityService) List(ctx context.Context, actor *models.Actor, query dto.AvailabilityQuery) ([]models.TutorAvailability, *models.Pagination, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, nil, err
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, validationError(err, "invalid availability filter")
	}
	filter := models.AvailabilityFilter{
		DayOfWeek: timeutil.Weekday(query.DayOfWeek),
		TimeZone:  query.TimeZone,
		IsActive:  query.IsActive,
		Page:      query.Page,
		Limit:     query.Limit,
	}
	windows, total, err := s.repo.List(ctx, tutorID, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list availability")
	}
	return windows, models.NewPagination(filter.Page, filter.Limit, total), nil
}

// Create adds a window after checking it against the tutor's other windows and booked sessions.
func (s *AvailabilityService) Create(ctx context.Context, actor *models.Actor, req dto.CreateAvailabilityRequest) (*models.TutorAvailability, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid availability payload")
	}
	iv, err := parseInterval(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if iv.Empty() {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "start time must be before end time")
	}

	window := &models.TutorAvailability{
		TutorID:   tutorID,
		DayOfWeek: timeutil.Weekday(req.DayOfWeek),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		TimeZone:  req.TimeZone,
		IsActive:  true,
	}
	err = withTutorLock(ctx, s.locker, s.metrics, tutorID, func() error {
		if err := s.checkWindow(ctx, tutorID, "", window.DayOfWeek, iv); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, window); err != nil {
			return appErrors.Internal(err, "failed to create availability")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("availability created", zap.String("tutor_id", tutorID), zap.String("availability_id", window.ID))
	return window, nil
}

// Update applies a partial change and re-validates the resulting window.
func (s *AvailabilityService) Update(ctx context.Context, actor *models.Actor, id string, req dto.UpdateAvailabilityRequest) (*models.TutorAvailability, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid availability payload")
	}

	var window *models.TutorAvailability
	err = withTutorLock(ctx, s.locker, s.metrics, tutorID, func() error {
		current, err := s.ownedWindow(ctx, tutorID, id)
		if err != nil {
			return err
		}
		if req.DayOfWeek != nil {
			current.DayOfWeek = timeutil.Weekday(*req.DayOfWeek)
		}
		if req.StartTime != nil {
			current.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			current.EndTime = *req.EndTime
		}
		if req.TimeZone != nil {
			current.TimeZone = *req.TimeZone
		}
		if req.IsActive != nil {
			current.IsActive = *req.IsActive
		}
		iv, err := parseInterval(current.StartTime, current.EndTime)
		if err != nil {
			return err
		}
		if iv.Empty() {
			return appErrors.Clone(appErrors.ErrInvalidRange, "start time must be before end time")
		}
		if err := s.checkWindow(ctx, tutorID, current.ID, current.DayOfWeek, iv); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, current); err != nil {
			return appErrors.Internal(err, "failed to update availability")
		}
		window = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return window, nil
}

// Delete removes a window owned by the actor.
func (s *AvailabilityService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return err
	}
	if _, err := s.ownedWindow(ctx, tutorID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete availability")
	}
	return nil
}

// ToggleActive flips the active flag. Re-activating a window re-checks overlap
// with the tutor's other active windows.
func (s *AvailabilityService) ToggleActive(ctx context.Context, actor *models.Actor, id string) (*models.TutorAvailability, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	var window *models.TutorAvailability
	err = withTutorLock(ctx, s.locker, s.metrics, tutorID, func() error {
		current, err := s.ownedWindow(ctx, tutorID, id)
		if err != nil {
			return err
		}
		current.IsActive = !current.IsActive
		if current.IsActive {
			iv, err := parseInterval(current.StartTime, current.EndTime)
			if err != nil {
				return err
			}
			if err := s.checkOverlap(ctx, tutorID, current.ID, current.DayOfWeek, iv); err != nil {
				return err
			}
		}
		if err := s.repo.Update(ctx, current); err != nil {
			return appErrors.Internal(err, "failed to toggle availability")
		}
		window = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return window, nil
}

func (s *AvailabilityService) ownedWindow(ctx context.Context, tutorID, id string) (*models.TutorAvailability, error) {
	window, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "availability not found", "failed to load availability")
	}
	if window.TutorID != tutorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this availability")
	}
	return window, nil
}

func (s *AvailabilityService) checkWindow(ctx context.Context, tutorID, excludeID string, day models.DayOfWeek, iv timeutil.Interval) error {
	if err := s.checkOverlap(ctx, tutorID, excludeID, day, iv); err != nil {
		return err
	}

	sessions, err := s.sessions.ListByTutorRange(ctx, tutorID, nil, nil, models.ActiveSessionStatuses)
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor sessions")
	}
	for _, session := range sessions {
		if timeutil.DayOfWeek(session.Date) != day {
			continue
		}
		booked, err := session.Interval()
		if err != nil {
			continue
		}
		if booked.Overlaps(iv) {
			s.metrics.RecordConflict(appErrors.ErrSessionConflict.Code)
			return appErrors.Clone(appErrors.ErrSessionConflict, fmt.Sprintf("you already have a session on %s at %s", timeutil.FormatDate(session.Date), booked))
		}
	}
	return nil
}

func (s *AvailabilityService) checkOverlap(ctx context.Context, tutorID, excludeID string, day models.DayOfWeek, iv timeutil.Interval) error {
	others, err := s.repo.ListActiveByDay(ctx, tutorID, day)
	if err != nil {
		return appErrors.Internal(err, "failed to load tutor availability")
	}
	for _, other := range others {
		if other.ID == excludeID {
			continue
		}
		window, err := other.Interval()
		if err != nil {
			continue
		}
		if window.Overlaps(iv) {
			s.metrics.RecordConflict(appErrors.ErrOverlappingWindow.Code)
			return appErrors.Clone(appErrors.ErrOverlappingWindow, fmt.Sprintf("overlaps with %s", window))
		}
	}
	return nil
}
