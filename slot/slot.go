// Package slot produces the date and time-of-day choices a customer can book.
//
// All slots sit on a 15 minute grid. Bookings are allowed for today and the two
// following days only.
package slot

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

const (
	// Step is the distance between two selectable start times.
	Step = 15 * time.Minute

	stepMinutes = 15

	// DaysAhead is how far past today a booking may start.
	DaysAhead = 2

	// SlotsPerDay is the number of start times in a full day.
	SlotsPerDay = 24 * 60 / stepMinutes
)

var (
	ErrInvalidTime = errors.New("invalid time of day")
	ErrInvalidDate = errors.New("invalid calendar date")
)

// TimeOfDay is a wall-clock time without a date, at minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Midnight is the first slot of every day.
var Midnight = TimeOfDay{}

// LastSlot is the latest start time of every day.
var LastSlot = TimeOfDay{Hour: 23, Minute: 45}

// TimeOf returns the time of day of t in t's location.
func TimeOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOf(t), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is earlier in the day than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.minutes() < u.minutes()
}

// OnGrid reports whether t is a valid start time.
func (t TimeOfDay) OnGrid() bool {
	return t.Minute%stepMinutes == 0
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CalendarDate is a date without a time or location.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero date.
func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// In returns the instant at which d starts in loc.
func (d CalendarDate) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns d shifted by n days.
func (d CalendarDate) AddDays(n int) CalendarDate {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// At combines d and t into an instant in loc.
func (d CalendarDate) At(t TimeOfDay, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

func (d CalendarDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *CalendarDate) UnmarshalJSON(b []byte) error {
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
