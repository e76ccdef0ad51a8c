package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// Toggle flips PRESENT and ABSENT.
func (s AttendanceStatus) Toggle() AttendanceStatus {
	if s == AttendanceStatusPresent {
		return AttendanceStatusAbsent
	}
	return AttendanceStatusPresent
}

// Attendance is a student's presence record for one session.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	SessionID string           `db:"session_id" json:"session_id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Status    AttendanceStatus `db:"status" json:"status"`
	MarkedBy  string           `db:"marked_by" json:"marked_by"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord extends attendance with student metadata.
type AttendanceRecord struct {
	Attendance
	StudentName string `db:"student_name" json:"student_name"`
}
