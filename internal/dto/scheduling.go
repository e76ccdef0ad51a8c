package dto

// CreateAvailabilityRequest adds a recurring weekly window.
type CreateAvailabilityRequest struct {
	DayOfWeek string `json:"day_of_week" validate:"required,weekday"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
	TimeZone  string `json:"time_zone" validate:"required"`
}

// UpdateAvailabilityRequest partially updates a window.
type UpdateAvailabilityRequest struct {
	DayOfWeek *string `json:"day_of_week" validate:"omitempty,weekday"`
	StartTime *string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime   *string `json:"end_time" validate:"omitempty,hhmm"`
	TimeZone  *string `json:"time_zone" validate:"omitempty,min=1"`
	IsActive  *bool   `json:"is_active"`
}

// AvailabilityQuery filters availability listings.
type AvailabilityQuery struct {
	DayOfWeek string `form:"day_of_week" validate:"omitempty,weekday"`
	TimeZone  string `form:"time_zone"`
	IsActive  *bool  `form:"is_active"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

// CreateTimeOffRequest blocks part of a single day.
type CreateTimeOffRequest struct {
	Date      string  `json:"date" validate:"required,ymd"`
	StartTime string  `json:"start_time" validate:"required,hhmm"`
	EndTime   string  `json:"end_time" validate:"required,hhmm"`
	Reason    *string `json:"reason" validate:"omitempty,max=255"`
}

// CreateLeaveRequest blocks a range of whole days.
type CreateLeaveRequest struct {
	StartDate string  `json:"start_date" validate:"required,ymd"`
	EndDate   string  `json:"end_date" validate:"required,ymd"`
	Reason    *string `json:"reason" validate:"omitempty,max=255"`
}

// DateRangeQuery filters time-off, leave and export listings.
type DateRangeQuery struct {
	FromDate string `form:"from_date" validate:"omitempty,ymd"`
	ToDate   string `form:"to_date" validate:"omitempty,ymd"`
}

// CreateSessionRequest books a private session.
type CreateSessionRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	Date      string `json:"date" validate:"required,ymd"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	Duration  int    `json:"duration_min" validate:"required,min=15,max=480"`
	StudentID string `json:"student_id"`
}

// RescheduleSessionRequest moves a private session.
type RescheduleSessionRequest struct {
	Date      string `json:"date" validate:"required,ymd"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	Duration  int    `json:"duration_min" validate:"omitempty,min=15,max=480"`
}

// CreateAdHocSessionRequest adds an extra or makeup session to a group class.
type CreateAdHocSessionRequest struct {
	Date      string `json:"date" validate:"required,ymd"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	Duration  int    `json:"duration_min" validate:"required,min=15,max=480"`
}

// SessionQuery filters class session listings.
type SessionQuery struct {
	Status      string `form:"status"`
	SessionType string `form:"session_type" validate:"omitempty,oneof=REGULAR EXTRA DBOUT"`
	FromDate    string `form:"from_date" validate:"omitempty,ymd"`
	ToDate      string `form:"to_date" validate:"omitempty,ymd"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// AvailableSlotsQuery asks for bookable start times on a date.
type AvailableSlotsQuery struct {
	Date     string `form:"date" validate:"required,ymd"`
	Duration int    `form:"duration_min" validate:"required,min=15,max=480"`
	Step     int    `form:"step_min" validate:"omitempty,min=5,max=240"`
}

// StudentAttendance is one entry of a bulk attendance payload.
type StudentAttendance struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=PRESENT ABSENT"`
}

// MarkAttendanceRequest records attendance for several students at once.
type MarkAttendanceRequest struct {
	Attendance []StudentAttendance `json:"attendance" validate:"required,min=1,dive"`
}

// PageQuery carries page/limit query parameters.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// ExportScheduleQuery selects the range and format of a schedule export.
type ExportScheduleQuery struct {
	FromDate string `form:"from_date" validate:"required,ymd"`
	ToDate   string `form:"to_date" validate:"required,ymd"`
	Format   string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
