package model

import (
	"fmt"
	"strconv"
	"time"
)

// Task is a recurring goal tracked against a daily quota.
type Task struct {
	ID          int64
	Action      string
	CountPerDay float64
	Unit        string
	CountAccum  float64
	Start       time.Time
	End         time.Time
	// EffectiveDow holds the active weekdays in Monday-first order.
	EffectiveDow []time.Weekday
	// DailyTasks switches the task into specific-activity mode: entry i
	// belongs to the i-th effective date. Nil when absent.
	DailyTasks []string
	Name       string
	Archive    bool
}

// Label is the display name: Name when set, otherwise "<action> <count> <unit>".
func (t Task) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("%s %s %s", t.Action, strconv.FormatFloat(t.CountPerDay, 'f', -1, 64), t.Unit)
}

// HasDailyTasks reports whether the task is in specific-activity mode.
func (t Task) HasDailyTasks() bool {
	return t.DailyTasks != nil
}
