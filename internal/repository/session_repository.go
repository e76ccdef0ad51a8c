package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/studymate-api/internal/models"
)

// ErrDuplicateSession is returned when a REGULAR session already exists for a class and date.
var ErrDuplicateSession = errors.New("regular session already exists for class and date")

const (
	uniqueViolation          = "23505"
	regularSessionConstraint = "sessions_regular_class_date_uniq"
)

const sessionColumns = "id, class_id, tutor_id, student_id, date, start_time, duration_min, session_type, status, created_by, meeting_link, created_at, updated_at"

// SessionRepository persists sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID loads a session by id.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = $1", sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByTutorDate returns the tutor's sessions on a date whose status is in statuses.
func (r *SessionRepository) ListByTutorDate(ctx context.Context, tutorID string, date time.Time, statuses []models.SessionStatus) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE tutor_id = $1 AND date = $2 AND status = ANY($3) ORDER BY start_time ASC", sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, tutorID, date, statusArray(statuses)); err != nil {
		return nil, fmt.Errorf("list sessions by tutor date: %w", err)
	}
	return sessions, nil
}

// ListByTutorRange returns the tutor's sessions dated within [from, to] whose status is in statuses.
// A nil bound leaves that side open.
func (r *SessionRepository) ListByTutorRange(ctx context.Context, tutorID string, from, to *time.Time, statuses []models.SessionStatus) ([]models.Session, error) {
	conditions := []string{"tutor_id = $1", "status = ANY($2)"}
	args := []interface{}{tutorID, statusArray(statuses)}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *to)
	}
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE %s ORDER BY date ASC, start_time ASC", sessionColumns, strings.Join(conditions, " AND "))
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions by tutor range: %w", err)
	}
	return sessions, nil
}

// ListRegularDates returns the dates already materialised from a class template,
// whatever their status, so cancelled occurrences are not regenerated.
func (r *SessionRepository) ListRegularDates(ctx context.Context, classID string, from, to time.Time) ([]time.Time, error) {
	const query = `SELECT date FROM sessions WHERE class_id = $1 AND session_type = $2 AND created_by = $3 AND date >= $4 AND date <= $5`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, classID, models.SessionTypeRegular, models.CreatedBySystem, from, to); err != nil {
		return nil, fmt.Errorf("list regular session dates: %w", err)
	}
	return dates, nil
}

// HasPendingRequest reports whether the student already waits on approval in a class.
func (r *SessionRepository) HasPendingRequest(ctx context.Context, classID, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM sessions WHERE class_id = $1 AND student_id = $2 AND status = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, classID, studentID, models.SessionStatusPendingApproval); err != nil {
		return false, fmt.Errorf("check pending session: %w", err)
	}
	return exists, nil
}

// List returns sessions matching filter with total count, ordered by date and start.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	where, args := sessionWhere(filter)
	page, limit := models.Page(filter.Page, filter.Limit)
	offset := (page - 1) * limit

	query := fmt.Sprintf("SELECT %s FROM sessions WHERE %s ORDER BY date ASC, start_time ASC LIMIT %d OFFSET %d", sessionColumns, where, limit, offset)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM sessions WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

// ListUpcoming returns active sessions dated on or after from for a tutor or a student.
// Students also see unassigned sessions of the classes they are enrolled in.
func (r *SessionRepository) ListUpcoming(ctx context.Context, tutorID, studentID string, from time.Time) ([]models.Session, error) {
	var owner string
	var id string
	switch {
	case tutorID != "":
		owner, id = "tutor_id = $1", tutorID
	case studentID != "":
		owner = "(student_id = $1 OR (student_id IS NULL AND class_id IN (SELECT class_id FROM class_enrollments WHERE student_id = $1)))"
		id = studentID
	default:
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE %s AND status = ANY($2) AND date >= $3 ORDER BY date ASC, start_time ASC", sessionColumns, owner)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, id, statusArray(models.ActiveSessionStatuses), from); err != nil {
		return nil, fmt.Errorf("list upcoming sessions: %w", err)
	}
	return sessions, nil
}

// ListForExport returns a tutor's sessions in range joined with class titles.
func (r *SessionRepository) ListForExport(ctx context.Context, tutorID string, from, to time.Time) ([]models.SessionWithClass, error) {
	const query = `SELECT s.id, s.class_id, s.tutor_id, s.student_id, s.date, s.start_time, s.duration_min, s.session_type, s.status, s.created_by, s.meeting_link, s.created_at, s.updated_at, c.title AS class_title
FROM sessions s
JOIN tuition_classes c ON c.id = s.class_id
WHERE s.tutor_id = $1 AND s.date >= $2 AND s.date <= $3
ORDER BY s.date ASC, s.start_time ASC`
	var rows []models.SessionWithClass
	if err := r.db.SelectContext(ctx, &rows, query, tutorID, from, to); err != nil {
		return nil, fmt.Errorf("list sessions for export: %w", err)
	}
	return rows, nil
}

// Create stores a new session. A second REGULAR session for the same class and
// date violates sessions_regular_class_date_uniq and yields ErrDuplicateSession.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO sessions (id, class_id, tutor_id, student_id, date, start_time, duration_min, session_type, status, created_by, meeting_link, created_at, updated_at) VALUES (:id, :class_id, :tutor_id, :student_id, :date, :start_time, :duration_min, :session_type, :status, :created_by, :meeting_link, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation && pqErr.Constraint == regularSessionConstraint {
			return ErrDuplicateSession
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update overwrites the schedule, status and link of a session.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET date = :date, start_time = :start_time, duration_min = :duration_min, status = :status, meeting_link = :meeting_link, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// SetMeetingLink attaches a meeting link to a session.
func (r *SessionRepository) SetMeetingLink(ctx context.Context, id, link string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET meeting_link = $1, updated_at = $2 WHERE id = $3`, link, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("set meeting link: %w", err)
	}
	return nil
}

func sessionWhere(filter models.SessionFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, statusArray(filter.Statuses))
	}
	if filter.SessionType != "" {
		conditions = append(conditions, fmt.Sprintf("session_type = $%d", len(args)+1))
		args = append(args, filter.SessionType)
	}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
	}
	return strings.Join(conditions, " AND "), args
}

func statusArray(statuses []models.SessionStatus) interface{} {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return pqArray(values)
}
