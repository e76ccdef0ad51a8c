package models

import (
	"time"

	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionStatusPendingApproval    SessionStatus = "PENDING_TUTOR_APPROVAL"
	SessionStatusScheduled          SessionStatus = "SCHEDULED"
	SessionStatusCompleted          SessionStatus = "COMPLETED"
	SessionStatusCancelledByTutor   SessionStatus = "CANCELLED_BY_TUTOR"
	SessionStatusCancelledByStudent SessionStatus = "CANCELLED_BY_STUDENT"
)

// ActiveSessionStatuses are the non-terminal states that hold a tutor's time.
var ActiveSessionStatuses = []SessionStatus{SessionStatusPendingApproval, SessionStatusScheduled}

// Terminal reports whether no further transition is allowed.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusCancelledByTutor, SessionStatusCancelledByStudent:
		return true
	default:
		return false
	}
}

// SessionType records how a session came to exist.
type SessionType string

const (
	SessionTypeRegular SessionType = "REGULAR"
	SessionTypeExtra   SessionType = "EXTRA"
	SessionTypeDbout   SessionType = "DBOUT"
)

// SessionCreator tags who created a session.
type SessionCreator string

const (
	CreatedBySystem  SessionCreator = "SYSTEM"
	CreatedByStudent SessionCreator = "STUDENT"
	CreatedByTutor   SessionCreator = "TUTOR"
)

// Session is one dated occurrence of a class.
type Session struct {
	ID          string         `db:"id" json:"id"`
	ClassID     string         `db:"class_id" json:"class_id"`
	TutorID     string         `db:"tutor_id" json:"tutor_id"`
	StudentID   *string        `db:"student_id" json:"student_id,omitempty"`
	Date        time.Time      `db:"date" json:"date"`
	StartTime   string         `db:"start_time" json:"start_time"`
	DurationMin int            `db:"duration_min" json:"duration_min"`
	SessionType SessionType    `db:"session_type" json:"session_type"`
	Status      SessionStatus  `db:"status" json:"status"`
	CreatedBy   SessionCreator `db:"created_by" json:"created_by"`
	MeetingLink *string        `db:"meeting_link" json:"meeting_link,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Interval returns the session's minute range on its date.
func (s Session) Interval() (timeutil.Interval, error) {
	return timeutil.IntervalFrom(s.StartTime, s.DurationMin)
}

// StartsAt combines date and start time into a UTC instant.
func (s Session) StartsAt() (time.Time, error) {
	m, err := timeutil.ToMinutes(s.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	return timeutil.At(s.Date, m), nil
}

// SessionFilter scopes session listings.
type SessionFilter struct {
	ClassID     string
	TutorID     string
	StudentID   string
	Statuses    []SessionStatus
	SessionType SessionType
	FromDate    *time.Time
	ToDate      *time.Time
	Page        int
	Limit       int
}

// SessionWithClass enriches a session with its class title for exports and listings.
type SessionWithClass struct {
	Session
	ClassTitle string `db:"class_title" json:"class_title"`
}

// JoinConfig describes how a participant joins a session's meeting room.
type JoinConfig struct {
	Provider    string    `json:"provider"`
	RoomName    string    `json:"room_name"`
	MeetingLink string    `json:"meeting_link"`
	DisplayName string    `json:"display_name"`
	IsModerator bool      `json:"is_moderator"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AvailableSlot is a bookable start time on a date.
type AvailableSlot struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}
