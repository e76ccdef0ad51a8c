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

const availabilityColumns = "id, tutor_id, day_of_week, start_time, end_time, time_zone, is_active, created_at, updated_at"

// AvailabilityRepository persists tutor availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// List returns a page of a tutor's windows, newest first, with the total count.
func (r *AvailabilityRepository) List(ctx context.Context, tutorID string, filter models.AvailabilityFilter) ([]models.TutorAvailability, int, error) {
	conditions := []string{"tutor_id = $1"}
	args := []interface{}{tutorID}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}
	if filter.TimeZone != "" {
		conditions = append(conditions, fmt.Sprintf("time_zone = $%d", len(args)+1))
		args = append(args, filter.TimeZone)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	where := strings.Join(conditions, " AND ")
	page, limit := models.Page(filter.Page, filter.Limit)
	offset := (page - 1) * limit

	query := fmt.Sprintf("SELECT %s FROM tutor_availability WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", availabilityColumns, where, limit, offset)
	var windows []models.TutorAvailability
	if err := r.db.SelectContext(ctx, &windows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list availability: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM tutor_availability WHERE %s", where), args...); err != nil {
		return nil, 0, fmt.Errorf("count availability: %w", err)
	}
	return windows, total, nil
}

// ListActiveByDay returns the tutor's active windows on a weekday ordered by start.
func (r *AvailabilityRepository) ListActiveByDay(ctx context.Context, tutorID string, day models.DayOfWeek) ([]models.TutorAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_availability WHERE tutor_id = $1 AND day_of_week = $2 AND is_active = TRUE ORDER BY start_time ASC", availabilityColumns)
	var windows []models.TutorAvailability
	if err := r.db.SelectContext(ctx, &windows, query, tutorID, day); err != nil {
		return nil, fmt.Errorf("list active availability: %w", err)
	}
	return windows, nil
}

// FindByID loads a window by id.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.TutorAvailability, error) {
	query := fmt.Sprintf("SELECT %s FROM tutor_availability WHERE id = $1", availabilityColumns)
	var window models.TutorAvailability
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// Create stores a new window.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.TutorAvailability) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = now
	}
	window.UpdatedAt = now

	const query = `INSERT INTO tutor_availability (id, tutor_id, day_of_week, start_time, end_time, time_zone, is_active, created_at, updated_at) VALUES (:id, :tutor_id, :day_of_week, :start_time, :end_time, :time_zone, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create availability: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a window.
func (r *AvailabilityRepository) Update(ctx context.Context, window *models.TutorAvailability) error {
	window.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tutor_availability SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, time_zone = :time_zone, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	return nil
}

// Delete removes a window by id.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tutor_availability WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete availability: %w", err)
	}
	return nil
}
