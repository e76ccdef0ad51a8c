package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studymate-api/internal/models"
)

// AttendanceRepository persists per-session attendance.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertMany writes one row per (session, student) inside a single transaction.
func (r *AttendanceRepository) UpsertMany(ctx context.Context, records []models.Attendance) ([]models.Attendance, error) {
	if len(records) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attendance upsert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO attendance (id, session_id, student_id, status, marked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (session_id, student_id)
DO UPDATE SET status = EXCLUDED.status, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at
RETURNING id, session_id, student_id, status, marked_by, created_at, updated_at`
	now := time.Now().UTC()
	stored := make([]models.Attendance, 0, len(records))
	for i := range records {
		rec := records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		var row models.Attendance
		if err := tx.GetContext(ctx, &row, query, rec.ID, rec.SessionID, rec.StudentID, rec.Status, rec.MarkedBy, now, now); err != nil {
			return nil, fmt.Errorf("upsert attendance: %w", err)
		}
		stored = append(stored, row)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attendance upsert: %w", err)
	}
	commit = true
	return stored, nil
}

// ListBySession returns attendance for a session with student names and total count.
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID string, page, limit int) ([]models.AttendanceRecord, int, error) {
	page, limit = models.Page(page, limit)
	offset := (page - 1) * limit
	query := fmt.Sprintf(`SELECT a.id, a.session_id, a.student_id, a.status, a.marked_by, a.created_at, a.updated_at, u.name AS student_name
FROM attendance a
JOIN students s ON s.id = a.student_id
JOIN users u ON u.id = s.user_id
WHERE a.session_id = $1
ORDER BY a.created_at ASC LIMIT %d OFFSET %d`, limit, offset)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM attendance WHERE session_id = $1`, sessionID); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// FindByID loads an attendance row by id.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	const query = `SELECT id, session_id, student_id, status, marked_by, created_at, updated_at FROM attendance WHERE id = $1`
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateStatus changes the status of a single row.
func (r *AttendanceRepository) UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus, markedBy string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE attendance SET status = $1, marked_by = $2, updated_at = $3 WHERE id = $4`, status, markedBy, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}
