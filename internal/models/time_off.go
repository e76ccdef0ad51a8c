package models

import (
	"time"

	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

// TutorTimeOff is a single-day block carved out of a tutor's availability.
type TutorTimeOff struct {
	ID        string    `db:"id" json:"id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	Date      time.Time `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Interval returns the blocked minute range.
func (t TutorTimeOff) Interval() (timeutil.Interval, error) {
	return timeutil.ParseInterval(t.StartTime, t.EndTime)
}

// DateRangeFilter bounds listings by calendar date (inclusive).
type DateRangeFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
}
