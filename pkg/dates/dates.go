package dates

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Layout is the on-disk date format (YYYY-MM-DD).
const Layout = "2006-01-02"

const secondsPerDay = 86400

// AllWeekdays lists the weekdays in canonical Monday-first order.
var AllWeekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

var shortNames = map[time.Weekday]string{
	time.Monday:    "Mon",
	time.Tuesday:   "Tue",
	time.Wednesday: "Wed",
	time.Thursday:  "Thu",
	time.Friday:    "Fri",
	time.Saturday:  "Sat",
	time.Sunday:    "Sun",
}

// Day truncates t to its calendar date, expressed at midnight UTC.
// The wall-clock date of t in its own location is kept.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Parse reads a YYYY-MM-DD string.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// Format renders a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// WeekdayName returns the three letter name written to disk ("Mon").
func WeekdayName(d time.Weekday) string {
	return shortNames[d]
}

// ParseWeekday accepts full ("Monday") or short ("Mon") names, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	value := strings.ToLower(strings.TrimSpace(name))
	for _, d := range AllWeekdays {
		if value == strings.ToLower(d.String()) || value == strings.ToLower(shortNames[d]) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}

// MondayIndex is 0 for Monday through 6 for Sunday.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// SortWeekdays returns a de-duplicated copy of days in Monday-first order.
func SortWeekdays(days []time.Weekday) []time.Weekday {
	seen := make(map[time.Weekday]struct{}, len(days))
	result := make([]time.Weekday, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return MondayIndex(result[i]) < MondayIndex(result[j])
	})
	return result
}

// Contains reports whether d is one of days.
func Contains(days []time.Weekday, d time.Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}

// GenerateDateRange returns every date in [start, end] whose weekday is in
// effectiveDow, in chronological order.
func GenerateDateRange(start, end time.Time, effectiveDow []time.Weekday) []time.Time {
	start, end = Day(start), Day(end)
	if len(effectiveDow) == 0 || end.Before(start) {
		return nil
	}

	var result []time.Time
	for current := start; !current.After(end); current = current.AddDate(0, 0, 1) {
		if Contains(effectiveDow, current.Weekday()) {
			result = append(result, current)
		}
	}
	return result
}

// FillRatioPlanned is the idealized fill of one slot: past dates are full,
// future dates empty, and today fills with the fraction of the day elapsed
// on now's clock.
func FillRatioPlanned(date, now time.Time) float64 {
	day, today := Day(date), Day(now)
	switch {
	case day.Before(today):
		return 1
	case day.After(today):
		return 0
	}

	elapsed := now.Hour()*3600 + now.Minute()*60 + now.Second()
	return float64(elapsed) / secondsPerDay
}

// FillRatioActual spreads countAccum over the slots in order: the first
// floor(countAccum/countPerDay) slots are full, the next one holds the
// remainder and the rest are empty.
func FillRatioActual(index int, countPerDay, countAccum float64) float64 {
	if countPerDay <= 0 || countAccum <= 0 || index < 0 {
		return 0
	}

	fullSlots := math.Floor(countAccum / countPerDay)
	position := float64(index)
	switch {
	case position < fullSlots:
		return 1
	case position > fullSlots:
		return 0
	}

	remainder := countAccum - fullSlots*countPerDay
	return clamp(remainder/countPerDay, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
