package util

import (
	"testing"
	"time"

	"github.com/paleggworks/stayahead/pkg/model"
	"github.com/paleggworks/stayahead/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func readingTask() model.Task {
	return model.Task{
		ID:           1704067200000,
		Action:       "read",
		CountPerDay:  10,
		Unit:         "pages",
		CountAccum:   25,
		Start:        date(2024, 1, 1),
		End:          date(2024, 1, 8),
		EffectiveDow: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	}
}

func TestRecurrenceRule(t *testing.T) {
	assert.Equal(t, "RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR;UNTIL=20240108", RecurrenceRule(readingTask()))
}

func TestConvertTaskToCalendarEvent(t *testing.T) {
	report := progress.Compute(readingTask(), date(2024, 1, 5).Add(20*time.Hour))

	event, err := ConvertTaskToCalendarEvent(report)
	require.NoError(t, err)

	assert.Equal(t, "! read 10 pages", event.Summary)
	assert.Equal(t, colorBehind, event.ColorId)
	assert.Equal(t, "2024-01-01", event.Start.Date)
	assert.Equal(t, "2024-01-02", event.End.Date)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR;UNTIL=20240108"}, event.Recurrence)
	assert.Contains(t, event.Description, "• planned: 30 / 40 pages")
	assert.Contains(t, event.Description, "• actual: 25 / 40 pages")
	assert.Contains(t, event.Description, "• behind by: 5 pages")

	id, ok := GetTaskIDFromEvent(event)
	require.True(t, ok)
	assert.Equal(t, int64(1704067200000), id)
}

func TestConvertCompletedTask(t *testing.T) {
	task := readingTask()
	task.CountAccum = 40
	task.Name = "Novel"
	event, err := ConvertTaskToCalendarEvent(progress.Compute(task, date(2024, 1, 2)))
	require.NoError(t, err)
	assert.Equal(t, "✓ Novel", event.Summary)
	assert.Equal(t, colorCompleted, event.ColorId)
}

func TestConvertDailyTasksListsSchedule(t *testing.T) {
	task := readingTask()
	task.DailyTasks = []string{"ch1", "ch2", "ch3", "ch4"}
	task.CountAccum = 0
	event, err := ConvertTaskToCalendarEvent(progress.Compute(task, date(2023, 12, 1)))
	require.NoError(t, err)
	assert.Equal(t, "read 10 pages", event.Summary)
	assert.Contains(t, event.Description, "‣ 2024-01-03 ch2")
}

func TestConvertWithoutEffectiveDates(t *testing.T) {
	task := readingTask()
	task.EffectiveDow = []time.Weekday{time.Sunday}
	task.End = date(2024, 1, 6)
	_, err := ConvertTaskToCalendarEvent(progress.Compute(task, date(2024, 1, 2)))
	assert.Error(t, err)
}

func TestEventNeedsUpdate(t *testing.T) {
	report := progress.Compute(readingTask(), date(2024, 1, 5))
	target, err := ConvertTaskToCalendarEvent(report)
	require.NoError(t, err)

	same := *target
	assert.Nil(t, EventNeedsUpdate(&same, target))

	stale := *target
	stale.Summary = "read 10 pages"
	stale.Recurrence = []string{"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20240108"}
	patch := EventNeedsUpdate(&stale, target)
	require.NotNil(t, patch)
	assert.Equal(t, target.Summary, patch.Summary)
	assert.Equal(t, target.Recurrence, patch.Recurrence)
	assert.Empty(t, patch.Description)
	assert.Nil(t, patch.Start)
}

func TestGetTaskIDFromEventMissing(t *testing.T) {
	_, ok := GetTaskIDFromEvent(&calendar.Event{})
	assert.False(t, ok)
	_, ok = GetTaskIDFromEvent(nil)
	assert.False(t, ok)
}
