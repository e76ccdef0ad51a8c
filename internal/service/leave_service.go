package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

type leaveRepository interface {
	List(ctx context.Context, tutorID string, filter models.DateRangeFilter) ([]models.TutorLeave, error)
	ListOverlapping(ctx context.Context, tutorID string, start, end time.Time) ([]models.TutorLeave, error)
	FindByID(ctx context.Context, id string) (*models.TutorLeave, error)
	Create(ctx context.Context, leave *models.TutorLeave) error
	Delete(ctx context.Context, id string) error
}

// LeaveService manages multi-day tutor leave.
type LeaveService struct {
	repo      leaveRepository
	sessions  tutorRangeSessionReader
	locker    TutorLocker
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService instantiates LeaveService.
func NewLeaveService(repo leaveRepository, sessions tutorRangeSessionReader, locker TutorLocker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = NewLocalTutorLocker()
	}
	return &LeaveService{repo: repo, sessions: sessions, locker: locker, metrics: metrics, validator: newSchedulingValidator(validate), logger: logger}
}

// List returns leave ranges touching the optional date window.
func (s *LeaveService) List(ctx context.Context, actor *models.Actor, query dto.DateRangeQuery) ([]models.TutorLeave, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	filter, err := dateRangeFilter(s.validator, query)
	if err != nil {
		return nil, err
	}
	leaves, err := s.repo.List(ctx, tutorID, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list leave")
	}
	return leaves, nil
}

// Create stores a leave range after normalising it to whole days. Leave is
// refused while any active session falls inside the range.
func (s *LeaveService) Create(ctx context.Context, actor *models.Actor, req dto.CreateLeaveRequest) (*models.TutorLeave, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid leave payload")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	start = timeutil.StartOfDay(start)
	end = timeutil.EndOfDay(end)
	if start.After(end) {
		return nil, s.reject(appErrors.Clone(appErrors.ErrInvalidRange, "start date must not be after end date"))
	}

	leave := &models.TutorLeave{TutorID: tutorID, StartDate: start, EndDate: end, Reason: req.Reason}
	err = withTutorLock(ctx, s.locker, s.metrics, tutorID, func() error {
		existing, err := s.repo.ListOverlapping(ctx, tutorID, start, end)
		if err != nil {
			return appErrors.Internal(err, "failed to load tutor leave")
		}
		for _, l := range existing {
			if l.OverlapsRange(start, end) {
				return s.reject(appErrors.Clone(appErrors.ErrOverlappingLeave, "leave overlaps with an existing leave"))
			}
		}

		sessions, err := s.sessions.ListByTutorRange(ctx, tutorID, &start, &end, models.ActiveSessionStatuses)
		if err != nil {
			return appErrors.Internal(err, "failed to load tutor sessions")
		}
		for _, session := range sessions {
			if !session.Status.Terminal() && !session.Date.Before(start) && !session.Date.After(end) {
				return s.reject(appErrors.Clone(appErrors.ErrHasActiveSessions, "please cancel your existing sessions before taking leave"))
			}
		}

		if err := s.repo.Create(ctx, leave); err != nil {
			return appErrors.Internal(err, "failed to create leave")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("leave created", zap.String("tutor_id", tutorID), zap.String("leave_id", leave.ID), zap.String("start_date", req.StartDate), zap.String("end_date", req.EndDate))
	return leave, nil
}

// Delete removes a leave range owned by the actor.
func (s *LeaveService) Delete(ctx context.Context, actor *models.Actor, id string) error {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return err
	}
	leave, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "leave not found", "failed to load leave")
	}
	if leave.TutorID != tutorID {
		return appErrors.Clone(appErrors.ErrForbidden, "you do not own this leave")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete leave")
	}
	return nil
}

func (s *LeaveService) reject(err *appErrors.Error) error {
	s.metrics.RecordConflict(err.Code)
	return err
}
