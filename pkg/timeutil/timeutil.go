// Package timeutil holds the calendar and wall-clock helpers shared by every
// scheduling path. All calendar math is done in UTC so that availability
// windows, time-off, leave and sessions agree on which weekday a date is.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidClock is returned for anything that is not a 24h HH:mm string.
	ErrInvalidClock = errors.New("time must use 24h HH:mm format")
	// ErrInvalidDate is returned for anything that is not a YYYY-MM-DD date.
	ErrInvalidDate = errors.New("date must use YYYY-MM-DD format")
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// Weekday is the three-letter day tag stored on availability windows and class templates.
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

var weekdays = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Valid reports whether d is one of the seven known tags.
func (d Weekday) Valid() bool {
	for _, w := range weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// ToMinutes converts "HH:mm" to minutes since midnight.
func ToMinutes(clock string) (int, error) {
	m := clockPattern.FindStringSubmatch(clock)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	h := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	mm := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	return h*60 + mm, nil
}

// FormatMinutes renders minutes since midnight as "HH:mm".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses a YYYY-MM-DD string into UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

// FormatDate renders the UTC calendar date of t.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DayOfWeek derives the weekday of a calendar date using the UTC calendar.
func DayOfWeek(date time.Time) Weekday {
	return weekdays[date.UTC().Weekday()]
}

// StartOfDay truncates t to 00:00:00 UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999 UTC of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(24*time.Hour - time.Millisecond)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// At combines a calendar date with a minute-of-day offset into a UTC instant.
func At(date time.Time, minutes int) time.Time {
	return StartOfDay(date).Add(time.Duration(minutes) * time.Minute)
}
