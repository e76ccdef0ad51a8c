package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studymate-api/internal/models"
)

const leaveColumns = "id, tutor_id, start_date, end_date, reason, created_at"

// LeaveRepository persists multi-day tutor leave.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a new leave repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// List returns leave ranges touching the optional window, latest first.
func (r *LeaveRepository) List(ctx context.Context, tutorID string, filter models.DateRangeFilter) ([]models.TutorLeave, error) {
	conditions := []string{"tutor_id = $1"}
	args := []interface{}{tutorID}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("end_date >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("start_date <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
	}
	query := fmt.Sprintf("SELECT %s FROM tutor_leave WHERE %s ORDER BY start_date DESC", leaveColumns, strings.Join(conditions, " AND "))
	var leaves []models.TutorLeave
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list leave: %w", err)
	}
	return leaves, nil
}

// ListOverlapping returns leave ranges intersecting [start, end] (closed).
func (r *LeaveRepository) ListOverlapping(ctx context.Context, tutorID string, start, end time.Time) ([]models.TutorLeave, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_leave WHERE tutor_id = $1 AND start_date <= $2 AND end_date >= $3", leaveColumns)
	var leaves []models.TutorLeave
	if err := r.db.SelectContext(ctx, &leaves, query, tutorID, end, start); err != nil {
		return nil, fmt.Errorf("list overlapping leave: %w", err)
	}
	return leaves, nil
}

// FindByID loads a leave row by id.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.TutorLeave, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_leave WHERE id = $1", leaveColumns)
	var leave models.TutorLeave
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// Create stores a new leave row.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.TutorLeave) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO tutor_leave (id, tutor_id, start_date, end_date, reason, created_at) VALUES (:id, :tutor_id, :start_date, :end_date, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave: %w", err)
	}
	return nil
}

// Delete removes a leave row by id.
func (r *LeaveRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tutor_leave WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete leave: %w", err)
	}
	return nil
}
