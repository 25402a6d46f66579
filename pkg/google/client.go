// Package google mirrors tasks into a Google Calendar as recurring all-day
// events.
package google

import (
	"context"
	"fmt"

	"github.com/paleggworks/stayahead/pkg/index"
	"google.golang.org/api/calendar/v3"
)

// NewClient looks up the calendar called calendarName, creating it when it
// does not exist yet.
func NewClient(ctx context.Context, srv *calendar.Service, calendarName string, idx *index.EventIndex) (*CalendarClient, error) {
	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	var calendarID string
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			calendarID = item.Id
			break
		}
	}

	if calendarID == "" {
		created, err := srv.Calendars.Insert(&calendar.Calendar{Summary: calendarName}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to create calendar '%s': %w", calendarName, err)
		}
		calendarID = created.Id
	}

	return NewCalendarClient(srv, calendarID, idx), nil
}
