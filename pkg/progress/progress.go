// Package progress derives the planned and actual trajectories of a task.
//
// The planned trajectory assumes the daily quota is met on every effective
// day up to and including today. The actual trajectory spreads the logged
// count over the effective days in order.
package progress

import (
	"errors"
	"math"
	"time"

	"github.com/paleggworks/stayahead/pkg/dates"
	"github.com/paleggworks/stayahead/pkg/model"
)

// ErrNeverCompletes is returned when no weekday is effective.
var ErrNeverCompletes = errors.New("task never completes: no effective weekdays")

// Slot is one effective date on the timeline.
type Slot struct {
	Index   int
	Date    time.Time
	Planned float64
	Actual  float64
	// Activity is the daily task for this date in specific-activity mode.
	Activity string
}

// Report summarizes a task as of a moment in time.
type Report struct {
	Task  model.Task
	Today time.Time

	TotalDays  int
	DaysPassed int

	PlannedAccomplished float64
	PlannedRemaining    float64
	ActualAccomplished  float64
	ActualRemaining     float64

	Slots []Slot
}

// Compute builds the report for task as seen at now.
func Compute(task model.Task, now time.Time) Report {
	effective := dates.GenerateDateRange(task.Start, task.End, task.EffectiveDow)
	today := dates.Day(now)

	daysPassed := 0
	for _, d := range effective {
		if !d.After(today) {
			daysPassed++
		}
	}

	total := float64(len(effective)) * task.CountPerDay
	planned := float64(daysPassed) * task.CountPerDay

	report := Report{
		Task:                task,
		Today:               today,
		TotalDays:           len(effective),
		DaysPassed:          daysPassed,
		PlannedAccomplished: planned,
		PlannedRemaining:    math.Max(0, total-planned),
		ActualAccomplished:  task.CountAccum,
		ActualRemaining:     math.Max(0, total-task.CountAccum),
		Slots:               make([]Slot, 0, len(effective)),
	}

	for i, d := range effective {
		slot := Slot{
			Index:   i,
			Date:    d,
			Planned: dates.FillRatioPlanned(d, now),
			Actual:  dates.FillRatioActual(i, task.CountPerDay, task.CountAccum),
		}
		if i < len(task.DailyTasks) {
			slot.Activity = task.DailyTasks[i]
		}
		report.Slots = append(report.Slots, slot)
	}

	return report
}

// Behind reports whether the logged count trails the planned one.
func (r Report) Behind() bool {
	return r.ActualAccomplished < r.PlannedAccomplished
}

// Completed reports whether the whole quota has been logged.
func (r Report) Completed() bool {
	return r.TotalDays > 0 && r.ActualRemaining == 0
}

// ProjectCompletionDate walks forward from start and returns the date of the
// n-th effective day. Zero tasks complete on start.
func ProjectCompletionDate(n int, start time.Time, effectiveDow []time.Weekday) (time.Time, error) {
	start = dates.Day(start)
	if n <= 0 {
		return start, nil
	}
	if len(effectiveDow) == 0 {
		return time.Time{}, ErrNeverCompletes
	}

	counted := 0
	current := start
	for {
		if dates.Contains(effectiveDow, current.Weekday()) {
			counted++
			if counted == n {
				return current, nil
			}
		}
		current = current.AddDate(0, 0, 1)
	}
}
