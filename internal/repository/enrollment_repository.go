package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnrollmentRepository answers enrollment questions for scheduling and attendance.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// IsEnrolled reports whether the student is enrolled in the class.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM class_enrollments WHERE class_id = $1 AND student_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, classID, studentID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// ListStudentIDs returns every student enrolled in the class.
func (r *EnrollmentRepository) ListStudentIDs(ctx context.Context, classID string) ([]string, error) {
	const query = `SELECT student_id FROM class_enrollments WHERE class_id = $1 ORDER BY created_at ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, classID); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return ids, nil
}
