package models

import "time"

// TutorLeave is a multi-day range during which a tutor cannot be booked.
// StartDate is stored at 00:00:00 and EndDate at 23:59:59.999 UTC.
type TutorLeave struct {
	ID        string    `db:"id" json:"id"`
	TutorID   string    `db:"tutor_id" json:"tutor_id"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Reason    *string   `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Covers reports whether the leave includes the calendar day of date.
func (l TutorLeave) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}

// OverlapsRange uses closed-interval semantics on both ranges.
func (l TutorLeave) OverlapsRange(start, end time.Time) bool {
	return !l.StartDate.After(end) && !l.EndDate.Before(start)
}
