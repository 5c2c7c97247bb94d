package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// dateLayouts are tried in order by ParseDate
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/1/2 15:04",
	time.RFC3339,
}

// Date is a calendar date without time or zone
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns the date for the given year, month and day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses the textual date representations found in exported logs.
// Anything that does not name a real calendar day is an error.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("unrecognized date %q", s)
}

// IsZero reports whether d is the zero Date
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns midnight UTC of d
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is earlier than other
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is later than other
func (d Date) After(other Date) bool {
	return other.Before(d)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time within a day, minute resolution
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay returns the time of day h:m
func NewTimeOfDay(h, m int) TimeOfDay {
	return TimeOfDay{Hour: h, Minute: m}
}

// Valid reports whether the hour and minute are in range
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// Minutes returns the number of minutes since midnight
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Hours returns the fractional hour, e.g. 9.5 for 09:30
func (t TimeOfDay) Hours() float64 {
	return float64(t.Hour) + float64(t.Minute)/60
}

// Before reports whether t is earlier in the day than other
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return fmt.Errorf("invalid time of day %q", s)
	}
	parsed := TimeOfDay{Hour: h, Minute: m}
	if !parsed.Valid() {
		return fmt.Errorf("time of day out of range %q", s)
	}
	*t = parsed
	return nil
}
