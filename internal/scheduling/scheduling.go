package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Business rule shared by the generator and the booking flow: every
// session runs 45 minutes and consecutive slots start 60 minutes apart,
// leaving a 15-minute gap before the next slot.
const (
	SessionMinutes = 45
	SlotCadence    = 60
)

// RecurrenceType selects how a bulk-add request expands into dates
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "None"
	RecurrenceDaily   RecurrenceType = "Daily"
	RecurrenceWeekly  RecurrenceType = "Weekly"
	RecurrenceMonthly RecurrenceType = "Monthly"
	RecurrenceCustom  RecurrenceType = "Custom"
)

// RecurrenceRequest is a therapist's bulk specification for generating
// many availability slots at once. SelectedDays uses weekday indices
// 0=Sunday .. 6=Saturday and is required only for Custom recurrence.
type RecurrenceRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	StartTime    string
	EndTime      string
	Recurrence   RecurrenceType
	SelectedDays []int
	IsFree       bool
}

// SlotKey identifies one bookable slot: a calendar date (midnight UTC)
// plus a "HH:MM" start time.
type SlotKey struct {
	Date      time.Time
	StartTime string
}

// ParseClock parses a 24-hour "HH:MM" string into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid time %q: hour out of range", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q: minute out of range", s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as a zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseTimeSlot extracts and validates the start of a "HH:MM-HH:MM"
// slot string. Only the start is used; the slot length is fixed.
func ParseTimeSlot(s string) (string, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time slot %q: expected HH:MM-HH:MM", s)
	}
	start, err := ParseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", err
	}
	return FormatClock(start), nil
}

// NormalizeDate strips the time-of-day, keeping the calendar date at
// midnight UTC.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InstantUTC combines a calendar date and a "HH:MM" start into an
// absolute UTC instant. The clock components are taken as UTC directly
// so the stored wall-clock numbers match what the user selected,
// regardless of server timezone.
func InstantUTC(date time.Time, startTime string) (time.Time, error) {
	minutes, err := ParseClock(startTime)
	if err != nil {
		return time.Time{}, err
	}
	day := NormalizeDate(date)
	return day.Add(time.Duration(minutes) * time.Minute), nil
}

// SlotTimes expands a [start, end) window in minutes-since-midnight into
// slot start strings. The first slot snaps forward to the next hour
// boundary; later slots step by the cadence for as long as a full
// session still fits before the window ends.
func SlotTimes(startMinutes, endMinutes int) []string {
	var times []string
	first := startMinutes
	if rem := first % SlotCadence; rem != 0 {
		first += SlotCadence - rem
	}
	for t := first; t+SessionMinutes <= endMinutes; t += SlotCadence {
		times = append(times, FormatClock(t))
	}
	return times
}

// Validate checks the structural invariants of a recurrence request
// before any generation happens.
func (r RecurrenceRequest) Validate() error {
	if _, err := ParseClock(r.StartTime); err != nil {
		return err
	}
	if _, err := ParseClock(r.EndTime); err != nil {
		return err
	}
	if NormalizeDate(r.EndDate).Before(NormalizeDate(r.StartDate)) {
		return fmt.Errorf("start date must not be after end date")
	}
	switch r.Recurrence {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
	case RecurrenceCustom:
		if len(r.SelectedDays) == 0 {
			return fmt.Errorf("custom recurrence requires at least one selected day")
		}
		for _, d := range r.SelectedDays {
			if d < 0 || d > 6 {
				return fmt.Errorf("selected day %d out of range 0-6", d)
			}
		}
	default:
		return fmt.Errorf("unknown recurrence type %q", r.Recurrence)
	}
	return nil
}

// ExpandDates produces the applicable calendar dates for the request,
// in ascending order, all normalized to midnight UTC.
func (r RecurrenceRequest) ExpandDates() []time.Time {
	start := NormalizeDate(r.StartDate)
	end := NormalizeDate(r.EndDate)

	switch r.Recurrence {
	case RecurrenceNone:
		return []time.Time{start}
	case RecurrenceDaily:
		var dates []time.Time
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		return dates
	case RecurrenceWeekly:
		var dates []time.Time
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if d.Weekday() == start.Weekday() {
				dates = append(dates, d)
			}
		}
		return dates
	case RecurrenceMonthly:
		return expandMonthly(start, end)
	case RecurrenceCustom:
		selected := make(map[time.Weekday]bool, len(r.SelectedDays))
		for _, d := range r.SelectedDays {
			selected[time.Weekday(d)] = true
		}
		var dates []time.Time
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if selected[d.Weekday()] {
				dates = append(dates, d)
			}
		}
		return dates
	}
	return nil
}

// expandMonthly walks month by month emitting the anchor day-of-month.
// Months that lack the anchor day (day 31 in a 30-day month) are
// skipped rather than clamped: clamping can yield duplicate or
// non-monotonic dates, skipping keeps the sequence strictly increasing.
func expandMonthly(start, end time.Time) []time.Time {
	var dates []time.Time
	anchor := start.Day()
	year, month := start.Year(), start.Month()
	for {
		d := time.Date(year, month, anchor, 0, 0, 0, 0, time.UTC)
		if d.After(end) {
			break
		}
		// time.Date normalizes overflow (Feb 31 -> Mar 3); a changed
		// day means this month lacks the anchor day.
		if d.Day() == anchor && !d.Before(start) {
			dates = append(dates, d)
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return dates
}

// Generate expands a recurrence request into the full candidate slot
// list: the cartesian product of applicable dates and slot start times.
// An empty result means the window cannot fit a single session; callers
// treat that as a validation failure.
func Generate(r RecurrenceRequest) ([]SlotKey, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	startMinutes, _ := ParseClock(r.StartTime)
	endMinutes, _ := ParseClock(r.EndTime)

	times := SlotTimes(startMinutes, endMinutes)
	dates := r.ExpandDates()

	slots := make([]SlotKey, 0, len(dates)*len(times))
	for _, date := range dates {
		for _, t := range times {
			slots = append(slots, SlotKey{Date: date, StartTime: t})
		}
	}
	return slots, nil
}
