package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

// ClassType distinguishes group classes from one-to-one private classes.
type ClassType string

const (
	ClassTypeGroup   ClassType = "GROUP"
	ClassTypePrivate ClassType = "PRIVATE"
)

// ClassStatus tracks the publication lifecycle of a tuition class.
type ClassStatus string

const (
	ClassStatusDraft     ClassStatus = "DRAFT"
	ClassStatusPublished ClassStatus = "PUBLISHED"
	ClassStatusActive    ClassStatus = "ACTIVE"
	ClassStatusCompleted ClassStatus = "COMPLETED"
	ClassStatusArchived  ClassStatus = "ARCHIVED"
)

// Bookable reports whether sessions may be created for a class in this status.
func (s ClassStatus) Bookable() bool {
	return s == ClassStatusPublished || s == ClassStatusActive
}

// TuitionClass holds the scheduling-relevant attributes of a class.
type TuitionClass struct {
	ID          string         `db:"id" json:"id"`
	TutorID     string         `db:"tutor_id" json:"tutor_id"`
	Title       string         `db:"title" json:"title"`
	Type        ClassType      `db:"type" json:"type"`
	Status      ClassStatus    `db:"status" json:"status"`
	StartDate   time.Time      `db:"start_date" json:"start_date"`
	EndDate     *time.Time     `db:"end_date" json:"end_date,omitempty"`
	DaysOfWeek  pq.StringArray `db:"days_of_week" json:"days_of_week"`
	StartTime   *string        `db:"start_time" json:"start_time,omitempty"`
	DurationMin *int           `db:"duration_min" json:"duration_min,omitempty"`
	Capacity    int            `db:"capacity" json:"capacity"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Weekdays returns the template days as typed tags.
func (c TuitionClass) Weekdays() []DayOfWeek {
	days := make([]DayOfWeek, 0, len(c.DaysOfWeek))
	for _, d := range c.DaysOfWeek {
		days = append(days, timeutil.Weekday(d))
	}
	return days
}

// HasTemplate reports whether the class carries a recurring weekly template.
func (c TuitionClass) HasTemplate() bool {
	return len(c.DaysOfWeek) > 0 && c.StartTime != nil && c.DurationMin != nil && *c.DurationMin > 0
}
