package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studymate-api/internal/models"
)

const classColumns = "id, tutor_id, title, type, status, start_date, end_date, days_of_week, start_time, duration_min, capacity, created_at, updated_at"

// ClassRepository reads the scheduling view of tuition classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID loads a class by id.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.TuitionClass, error) {
	query := fmt.Sprintf("SELECT %s FROM tuition_classes WHERE id = $1", classColumns)
	var class models.TuitionClass
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListByStatus returns classes in any of the statuses, optionally narrowed to a type.
func (r *ClassRepository) ListByStatus(ctx context.Context, classType models.ClassType, statuses ...models.ClassStatus) ([]models.TuitionClass, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	query := fmt.Sprintf("SELECT %s FROM tuition_classes WHERE status = ANY($1)", classColumns)
	args := []interface{}{pqArray(values)}
	if classType != "" {
		query += " AND type = $2"
		args = append(args, classType)
	}
	query += " ORDER BY start_date ASC"
	var classes []models.TuitionClass
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, fmt.Errorf("list classes by status: %w", err)
	}
	return classes, nil
}

// Activate moves PUBLISHED classes whose start date has arrived to ACTIVE.
func (r *ClassRepository) Activate(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE tuition_classes SET status = $1, updated_at = $2 WHERE status = $3 AND start_date <= $2`, models.ClassStatusActive, now, models.ClassStatusPublished)
	if err != nil {
		return 0, fmt.Errorf("activate classes: %w", err)
	}
	return res.RowsAffected()
}

// Complete moves ACTIVE classes whose end date has passed to COMPLETED.
func (r *ClassRepository) Complete(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE tuition_classes SET status = $1, updated_at = $2 WHERE status = $3 AND end_date IS NOT NULL AND end_date < $2`, models.ClassStatusCompleted, now, models.ClassStatusActive)
	if err != nil {
		return 0, fmt.Errorf("complete classes: %w", err)
	}
	return res.RowsAffected()
}
