package slot

import (
	"fmt"
	"time"
)

// RoundUpToNextQuarterHour returns the first quarter-hour boundary at or after
// the minute of t. Seconds and below are dropped, so 10:15:40 stays at 10:15.
// 23:50 rolls over to 00:00 of the next day.
func RoundUpToNextQuarterHour(t time.Time) time.Time {
	m := t.Minute()
	if rem := m % stepMinutes; rem != 0 {
		m += stepMinutes - rem
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), m, 0, 0, t.Location())
}

// RoundToNearestQuarterHour corrects a typed-in time to the closest grid value.
// A result of 24:00 is clamped to LastSlot so the date never changes.
func RoundToNearestQuarterHour(t TimeOfDay) TimeOfDay {
	q := (t.Minute + stepMinutes/2) / stepMinutes * stepMinutes
	h := t.Hour
	if q == 60 {
		q = 0
		h++
	}
	if h >= 24 {
		return LastSlot
	}
	return TimeOfDay{Hour: h, Minute: q}
}

// EarliestStart is the first start time that can be booked on date given now.
// ok is false when no slot is left on that date.
func EarliestStart(date CalendarDate, now time.Time) (TimeOfDay, bool) {
	if date != DateOf(now) {
		return Midnight, true
	}
	floor := RoundUpToNextQuarterHour(now)
	if DateOf(floor) != date {
		return TimeOfDay{}, false
	}
	return TimeOf(floor), true
}

// DateOption is one entry of the date picker.
type DateOption struct {
	Date     CalendarDate `json:"date"`
	Label    string       `json:"label"`
	SubLabel string       `json:"subLabel"`
}

var dateLabels = [DaysAhead + 1]string{"Today", "Tomorrow", "Day after"}

// GenerateDateOptions returns today, tomorrow and the day after, in that order.
func GenerateDateOptions(today time.Time) []DateOption {
	base := DateOf(today)
	opts := make([]DateOption, 0, DaysAhead+1)
	for i := 0; i <= DaysAhead; i++ {
		d := base.AddDays(i)
		opts = append(opts, DateOption{
			Date:     d,
			Label:    dateLabels[i],
			SubLabel: fmt.Sprintf("%d/%d", d.Day, int(d.Month)),
		})
	}
	return opts
}

// IsSelectableDate reports whether date is one of the options offered at now.
func IsSelectableDate(date CalendarDate, now time.Time) bool {
	for _, o := range GenerateDateOptions(now) {
		if o.Date == date {
			return true
		}
	}
	return false
}

// GenerateTimeOptions lists the bookable start times on selected, ascending.
// For today the list starts at the rounded-up current time; any other date
// gets the full day from 00:00 to 23:45.
func GenerateTimeOptions(selected CalendarDate, now time.Time) []TimeOfDay {
	start, ok := EarliestStart(selected, now)
	if !ok {
		return []TimeOfDay{}
	}
	opts := make([]TimeOfDay, 0, SlotsPerDay)
	for m := start.minutes(); m < 24*60; m += stepMinutes {
		opts = append(opts, TimeOfDay{Hour: m / 60, Minute: m % 60})
	}
	return opts
}
