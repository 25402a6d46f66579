package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/paleggworks/stayahead/pkg/index"
	"github.com/paleggworks/stayahead/pkg/model"
	"github.com/paleggworks/stayahead/pkg/progress"
	"github.com/paleggworks/stayahead/pkg/util"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// CalendarClient is a Google Calendar API client.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
}

func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx}
}

// MirrorResult counts what a Mirror call changed.
type MirrorResult struct {
	Synced  int
	Removed int
	Skipped int
}

// SyncTask creates the task's event or patches it when it has drifted.
func (c *CalendarClient) SyncTask(ctx context.Context, report progress.Report) (*calendar.Event, error) {
	event, err := util.ConvertTaskToCalendarEvent(report)
	if err != nil {
		return nil, err
	}
	taskID := report.Task.ID

	existingEvent, err := c.findEvent(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}

	if existingEvent != nil {
		patch := util.EventNeedsUpdate(existingEvent, event)
		if patch == nil {
			c.remember(taskID, existingEvent.Id)
			return existingEvent, nil
		}
		updatedEvent, err := c.PatchEvent(ctx, existingEvent.Id, patch)
		if err != nil {
			return nil, err
		}
		c.remember(taskID, updatedEvent.Id)
		return updatedEvent, nil
	}

	createdEvent, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	c.remember(taskID, createdEvent.Id)
	return createdEvent, nil
}

// findEvent checks the local index first and falls back to searching the
// calendar by the task id property.
func (c *CalendarClient) findEvent(ctx context.Context, taskID int64) (*calendar.Event, error) {
	if c.index != nil {
		if eventID := c.index.Get(taskID); eventID != "" {
			event, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err == nil && event.Status != "cancelled" {
				return event, nil
			}
			c.index.Remove(taskID)
		}
	}
	return c.GetEventByTaskID(ctx, taskID)
}

func (c *CalendarClient) remember(taskID int64, eventID string) {
	if c.index != nil {
		c.index.Set(taskID, eventID)
	}
}

// RemoveTask deletes the task's event if there is one.
func (c *CalendarClient) RemoveTask(ctx context.Context, taskID int64) error {
	event, err := c.findEvent(ctx, taskID)
	if err != nil {
		return err
	}
	if event != nil {
		if err := c.DeleteEvent(ctx, event.Id); err != nil {
			return err
		}
	}
	if c.index != nil {
		c.index.Remove(taskID)
	}
	return nil
}

// Mirror brings the calendar in line with tasks: active tasks get an
// event, archived tasks and tasks no longer present lose theirs.
func (c *CalendarClient) Mirror(ctx context.Context, tasks []model.Task, now time.Time) (MirrorResult, error) {
	var result MirrorResult
	var errs []error

	present := make(map[int64]bool, len(tasks))
	for _, task := range tasks {
		present[task.ID] = true
		if task.Archive {
			if err := c.RemoveTask(ctx, task.ID); err != nil {
				errs = append(errs, fmt.Errorf("remove task %d: %w", task.ID, err))
				continue
			}
			result.Removed++
			continue
		}

		report := progress.Compute(task, now)
		if report.TotalDays == 0 {
			result.Skipped++
			continue
		}
		if _, err := c.SyncTask(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("sync task %d: %w", task.ID, err))
			continue
		}
		result.Synced++
	}

	if c.index != nil {
		for _, id := range c.index.TaskIDs() {
			if present[id] {
				continue
			}
			if err := c.RemoveTask(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("remove task %d: %w", id, err))
				continue
			}
			result.Removed++
		}
		if err := c.index.Save(); err != nil {
			slog.Warn("failed to save event index", "error", err)
		}
	}

	return result, errors.Join(errs...)
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// DeleteEvent deletes an event. An event that is already gone is not an error.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
		return nil
	}
	return err
}

// GetEventByTaskID searches for the event carrying the task id property.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID int64) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.TaskIDProperty, strconv.FormatInt(taskID, 10))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}
