package timeutil

import "fmt"

// Interval is a half-open minute range [Start, End) within a single day.
type Interval struct {
	Start int
	End   int
}

// ParseInterval builds an interval from two HH:mm strings.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ToMinutes(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

// IntervalFrom builds an interval from a HH:mm start and a duration in minutes.
func IntervalFrom(start string, durationMin int) (Interval, error) {
	s, err := ToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: s + durationMin}, nil
}

// Empty reports whether the interval contains no minutes.
func (i Interval) Empty() bool {
	return i.Start >= i.End
}

// Overlaps is the single overlap predicate used across scheduling:
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i.Start, i.End, o.Start, o.End)
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return o.Start >= i.Start && o.End <= i.End
}

func (i Interval) String() string {
	return fmt.Sprintf("%s-%s", FormatMinutes(i.Start), FormatMinutes(i.End))
}

// Overlaps tests two half-open minute intervals.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && s2 < e1
}
