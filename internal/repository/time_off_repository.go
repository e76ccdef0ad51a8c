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

const timeOffColumns = "id, tutor_id, date, start_time, end_time, reason, created_at"

// TimeOffRepository persists single-day tutor time-off blocks.
type TimeOffRepository struct {
	db *sqlx.DB
}

// NewTimeOffRepository creates a new time-off repository.
func NewTimeOffRepository(db *sqlx.DB) *TimeOffRepository {
	return &TimeOffRepository{db: db}
}

// List returns time-off for a tutor within an optional date range, latest date first.
func (r *TimeOffRepository) List(ctx context.Context, tutorID string, filter models.DateRangeFilter) ([]models.TutorTimeOff, error) {
	conditions := []string{"tutor_id = $1"}
	args := []interface{}{tutorID}
	if filter.FromDate != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.ToDate)
	}
	query := fmt.Sprintf("SELECT %s FROM tutor_time_off WHERE %s ORDER BY date DESC, start_time ASC", timeOffColumns, strings.Join(conditions, " AND "))
	var blocks []models.TutorTimeOff
	if err := r.db.SelectContext(ctx, &blocks, query, args...); err != nil {
		return nil, fmt.Errorf("list time-off: %w", err)
	}
	return blocks, nil
}

// ListByDate returns the tutor's time-off rows on one calendar date.
func (r *TimeOffRepository) ListByDate(ctx context.Context, tutorID string, date time.Time) ([]models.TutorTimeOff, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_time_off WHERE tutor_id = $1 AND date = $2 ORDER BY start_time ASC", timeOffColumns)
	var blocks []models.TutorTimeOff
	if err := r.db.SelectContext(ctx, &blocks, query, tutorID, date); err != nil {
		return nil, fmt.Errorf("list time-off by date: %w", err)
	}
	return blocks, nil
}

// FindByID loads a time-off row by id.
func (r *TimeOffRepository) FindByID(ctx context.Context, id string) (*models.TutorTimeOff, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_time_off WHERE id = $1", timeOffColumns)
	var block models.TutorTimeOff
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// Create stores a new time-off row.
func (r *TimeOffRepository) Create(ctx context.Context, block *models.TutorTimeOff) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.CreatedAt.IsZero() {
		block.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO tutor_time_off (id, tutor_id, date, start_time, end_time, reason, created_at) VALUES (:id, :tutor_id, :date, :start_time, :end_time, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create time-off: %w", err)
	}
	return nil
}

// Delete removes a time-off row by id.
func (r *TimeOffRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tutor_time_off WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete time-off: %w", err)
	}
	return nil
}
