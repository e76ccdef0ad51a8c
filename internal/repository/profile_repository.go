package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ProfileRepository maps authenticated users onto their tutor or student profile.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// TutorIDByUser returns the tutor id owned by the user. sql.ErrNoRows when absent.
func (r *ProfileRepository) TutorIDByUser(ctx context.Context, userID string) (string, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM tutors WHERE user_id = $1`, userID); err != nil {
		return "", err
	}
	return id, nil
}

// StudentIDByUser returns the student id owned by the user. sql.ErrNoRows when absent.
func (r *ProfileRepository) StudentIDByUser(ctx context.Context, userID string) (string, error) {
	var id string
	if err := r.db.GetContext(ctx, &id, `SELECT id FROM students WHERE user_id = $1`, userID); err != nil {
		return "", err
	}
	return id, nil
}
