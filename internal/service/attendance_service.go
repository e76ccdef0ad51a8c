package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studymate-api/internal/dto"
	"github.com/noah-isme/studymate-api/internal/models"
	appErrors "github.com/noah-isme/studymate-api/pkg/errors"
)

type attendanceRepository interface {
	UpsertMany(ctx context.Context, records []models.Attendance) ([]models.Attendance, error)
	ListBySession(ctx context.Context, sessionID string, page, limit int) ([]models.AttendanceRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.Attendance, error)
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, markedBy string) error
}

type sessionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type rosterReader interface {
	ListStudentIDs(ctx context.Context, classID string) ([]string, error)
}

// AttendanceService records who attended a session.
type AttendanceService struct {
	repo      attendanceRepository
	sessions  sessionFinder
	roster    rosterReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, sessions sessionFinder, roster rosterReader, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, sessions: sessions, roster: roster, validator: validate, logger: logger}
}

// MarkBulk upserts attendance for the listed students in one transaction.
// Every student must be enrolled in the session's class.
func (s *AttendanceService) MarkBulk(ctx context.Context, actor *models.Actor, sessionID string, req dto.MarkAttendanceRequest) ([]models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	session, err := s.ownedSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.enrolledSet(ctx, session.ClassID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(req.Attendance))
	records := make([]models.Attendance, 0, len(req.Attendance))
	for _, item := range req.Attendance {
		if _, ok := enrolled[item.StudentID]; !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is not enrolled in this class", item.StudentID))
		}
		if _, dup := seen[item.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s listed more than once", item.StudentID))
		}
		seen[item.StudentID] = struct{}{}
		records = append(records, models.Attendance{
			SessionID: session.ID,
			StudentID: item.StudentID,
			Status:    models.AttendanceStatus(item.Status),
			MarkedBy:  actor.TutorID,
		})
	}
	return s.upsert(ctx, session, records)
}

// MarkAllPresent records every enrolled student as present.
func (s *AttendanceService) MarkAllPresent(ctx context.Context, actor *models.Actor, sessionID string) ([]models.Attendance, error) {
	session, err := s.ownedSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	ids, err := s.roster.ListStudentIDs(ctx, session.ClassID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	if len(ids) == 0 {
		return []models.Attendance{}, nil
	}
	records := make([]models.Attendance, len(ids))
	for i, id := range ids {
		records[i] = models.Attendance{SessionID: session.ID, StudentID: id, Status: models.AttendanceStatusPresent, MarkedBy: actor.TutorID}
	}
	return s.upsert(ctx, session, records)
}

// ListSessionAttendance returns a page of attendance rows with student names.
func (s *AttendanceService) ListSessionAttendance(ctx context.Context, actor *models.Actor, sessionID string, query dto.PageQuery) ([]models.AttendanceRecord, *models.Pagination, error) {
	if _, err := s.ownedSession(ctx, actor, sessionID); err != nil {
		return nil, nil, err
	}
	page, limit := models.Page(query.Page, query.Limit)
	rows, total, err := s.repo.ListBySession(ctx, sessionID, page, limit)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list attendance")
	}
	return rows, models.NewPagination(page, limit, total), nil
}

// Toggle flips a single record between PRESENT and ABSENT.
func (s *AttendanceService) Toggle(ctx context.Context, actor *models.Actor, id string) (*models.Attendance, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "attendance not found", "failed to load attendance")
	}
	if _, err := s.ownedSession(ctx, actor, record.SessionID); err != nil {
		return nil, err
	}
	record.Status = record.Status.Toggle()
	record.MarkedBy = actor.TutorID
	if err := s.repo.UpdateStatus(ctx, record.ID, record.Status, record.MarkedBy); err != nil {
		return nil, appErrors.Internal(err, "failed to update attendance")
	}
	return record, nil
}

func (s *AttendanceService) upsert(ctx context.Context, session *models.Session, records []models.Attendance) ([]models.Attendance, error) {
	stored, err := s.repo.UpsertMany(ctx, records)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to mark attendance")
	}
	s.logger.Info("attendance marked", zap.String("session_id", session.ID), zap.Int("records", len(stored)))
	return stored, nil
}

// ownedSession loads a session the tutor may take attendance for.
func (s *AttendanceService) ownedSession(ctx context.Context, actor *models.Actor, sessionID string) (*models.Session, error) {
	tutorID, err := requireTutor(actor)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, lookupError(err, "session not found", "failed to load session")
	}
	if session.TutorID != tutorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not own this session")
	}
	if session.Status != models.SessionStatusScheduled && session.Status != models.SessionStatusCompleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidStateTransition, "attendance is only kept for scheduled or completed sessions")
	}
	return session, nil
}

func (s *AttendanceService) enrolledSet(ctx context.Context, classID string) (map[string]struct{}, error) {
	ids, err := s.roster.ListStudentIDs(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
