package util

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/paleggworks/stayahead/pkg/dates"
	"github.com/paleggworks/stayahead/pkg/model"
	"github.com/paleggworks/stayahead/pkg/progress"
	"google.golang.org/api/calendar/v3"
)

// TaskIDProperty is the private extended property holding the task id.
const TaskIDProperty = "stayahead_id"

const (
	colorBehind    = "11" // tomato
	colorCompleted = "10" // basil
	colorOnTrack   = "9"  // blueberry
)

var rruleDays = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

// RecurrenceRule returns the weekly RRULE covering the task's effective days.
func RecurrenceRule(task model.Task) string {
	days := make([]string, 0, len(task.EffectiveDow))
	for _, d := range dates.SortWeekdays(task.EffectiveDow) {
		days = append(days, rruleDays[d])
	}
	return fmt.Sprintf("RRULE:FREQ=WEEKLY;BYDAY=%s;UNTIL=%s",
		strings.Join(days, ","), task.End.Format("20060102"))
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ConvertTaskToCalendarEvent builds the recurring all-day event for the
// task in report. The first occurrence is the first effective date.
func ConvertTaskToCalendarEvent(report progress.Report) (*calendar.Event, error) {
	task := report.Task
	if len(report.Slots) == 0 {
		return nil, fmt.Errorf("task %d has no effective dates between %s and %s",
			task.ID, dates.Format(task.Start), dates.Format(task.End))
	}

	prefix := ""
	colorID := colorOnTrack
	switch {
	case report.Completed():
		prefix = "✓"
		colorID = colorCompleted
	case report.Behind():
		prefix = "!"
		colorID = colorBehind
	}

	summary := task.Label()
	if prefix != "" {
		summary = fmt.Sprintf("%s %s", prefix, summary)
	}

	total := float64(report.TotalDays) * task.CountPerDay

	var desc strings.Builder
	fmt.Fprintf(&desc, "Goal: %s %s %s per day\n", task.Action, formatCount(task.CountPerDay), task.Unit)
	fmt.Fprintf(&desc, "Days: %d of %d\n", report.DaysPassed, report.TotalDays)
	desc.WriteString("\nProgress:\n")
	fmt.Fprintf(&desc, "• planned: %s / %s %s\n", formatCount(report.PlannedAccomplished), formatCount(total), task.Unit)
	fmt.Fprintf(&desc, "• actual: %s / %s %s\n", formatCount(report.ActualAccomplished), formatCount(total), task.Unit)
	if gap := report.PlannedAccomplished - report.ActualAccomplished; gap > 0 {
		fmt.Fprintf(&desc, "• behind by: %s %s\n", formatCount(gap), task.Unit)
	}

	if task.HasDailyTasks() {
		desc.WriteString("\nSchedule:\n")
		for _, slot := range report.Slots {
			fmt.Fprintf(&desc, "‣ %s %s\n", dates.Format(slot.Date), slot.Activity)
		}
	}

	first := report.Slots[0].Date
	event := &calendar.Event{
		Summary:      summary,
		ColorId:      colorID,
		Description:  desc.String(),
		Start:        &calendar.EventDateTime{Date: dates.Format(first)},
		End:          &calendar.EventDateTime{Date: dates.Format(first.AddDate(0, 0, 1))},
		Recurrence:   []string{RecurrenceRule(task)},
		Transparency: "transparent",
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				TaskIDProperty: strconv.FormatInt(task.ID, 10),
			},
		},
	}
	return event, nil
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when they match.
func EventNeedsUpdate(existing, target *calendar.Event) *calendar.Event {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}
	if eventDate(existing.Start) != eventDate(target.Start) || eventDate(existing.End) != eventDate(target.End) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}
	if !slices.Equal(existing.Recurrence, target.Recurrence) {
		patch.Recurrence = target.Recurrence
		needsUpdate = true
	}

	if needsUpdate {
		return patch
	}
	return nil
}

func eventDate(dt *calendar.EventDateTime) string {
	if dt == nil {
		return ""
	}
	return dt.Date
}

// GetTaskIDFromEvent reads the task id stored on an event.
func GetTaskIDFromEvent(event *calendar.Event) (int64, bool) {
	if event == nil || event.ExtendedProperties == nil {
		return 0, false
	}
	raw, ok := event.ExtendedProperties.Private[TaskIDProperty]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
