package models

import (
	"time"

	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

// DayOfWeek tags a recurring availability window or class template day.
type DayOfWeek = timeutil.Weekday

// TutorAvailability is a recurring weekly window during which a tutor is bookable.
type TutorAvailability struct {
	ID        string    `db:"id" json:"id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	DayOfWeek DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	TimeZone  string    `db:"time_zone" json:"time_zone"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the window as a minute range.
func (a TutorAvailability) Interval() (timeutil.Interval, error) {
	return timeutil.ParseInterval(a.StartTime, a.EndTime)
}

// AvailabilityFilter scopes availability listings.
type AvailabilityFilter struct {
	DayOfWeek DayOfWeek
	TimeZone  string
	IsActive  *bool
	Page      int
	Limit     int
}
