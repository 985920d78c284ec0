package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock accepts H:MM or HH:MM in 24-hour form and returns the
// zero-padded HH:MM spelling plus minutes since midnight.
func ParseClock(s string) (string, int, error) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])

	return fmt.Sprintf("%02d:%02d", hour, minute), hour*60 + minute, nil
}

// IsClock reports whether s is a valid 24-hour clock string.
func IsClock(s string) bool {
	return clockPattern.MatchString(strings.TrimSpace(s))
}

// NewTimeSlot normalises both ends and checks start < end.
func NewTimeSlot(start, end string) (TimeSlot, error) {
	s, sMin, err := ParseClock(start)
	if err != nil {
		return TimeSlot{}, err
	}
	e, eMin, err := ParseClock(end)
	if err != nil {
		return TimeSlot{}, err
	}
	if eMin <= sMin {
		return TimeSlot{}, fmt.Errorf("end time %s must be after start time %s", e, s)
	}
	return TimeSlot{Start: s, End: e}, nil
}

// Overlaps uses the half-open rule: touching slots do not overlap.
func (t TimeSlot) Overlaps(other TimeSlot) bool {
	return t.Start < other.End && t.End > other.Start
}

// ParseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns the
// calendar day as UTC midnight. The clock part of a timestamp is dropped.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return TruncateDay(t), nil
}

// TruncateDay keeps the calendar day of t as written and drops the rest.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartsAt is the instant a slot begins, reading the stored calendar day
// and HH:MM start as wall-clock time in loc.
func StartsAt(date time.Time, start string, loc *time.Location) (time.Time, error) {
	_, minutes, err := ParseClock(start)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc), nil
}

func SlotKey(venueID, courtID string, date time.Time) string {
	return fmt.Sprintf("slot:%s:%s:%s", venueID, courtID, date.UTC().Format(DateLayout))
}
