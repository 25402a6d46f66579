package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/paleggworks/stayahead/pkg/dates"
	"github.com/paleggworks/stayahead/pkg/progress"
)

const barWidth = 10

func bar(ratio float64) string {
	filled := int(math.Round(ratio * barWidth))
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// summaryLine is the one-line status shown by list.
func summaryLine(r progress.Report) string {
	total := float64(r.TotalDays) * r.Task.CountPerDay
	line := fmt.Sprintf("%s/%s %s", num(r.ActualAccomplished), num(total), r.Task.Unit)
	switch {
	case r.Completed():
		line += "  ✓ done"
	case r.Behind():
		line += fmt.Sprintf("  ! behind by %s", num(r.PlannedAccomplished-r.ActualAccomplished))
	}
	return line
}

func renderReport(w io.Writer, r progress.Report, mode progress.CollapseMode) {
	task := r.Task
	total := float64(r.TotalDays) * task.CountPerDay

	fmt.Fprintf(w, "%s  [%d]\n", task.Label(), task.ID)
	fmt.Fprintf(w, "  %s → %s, %d effective day(s), %d passed\n",
		dates.Format(task.Start), dates.Format(task.End), r.TotalDays, r.DaysPassed)
	fmt.Fprintf(w, "  planned: %s done, %s to go\n", num(r.PlannedAccomplished), num(r.PlannedRemaining))
	fmt.Fprintf(w, "  actual:  %s done, %s to go (of %s %s)\n",
		num(r.ActualAccomplished), num(r.ActualRemaining), num(total), task.Unit)
	if task.Archive {
		fmt.Fprintln(w, "  (archived)")
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %-14s %-*s  %-*s\n", "date", barWidth, "planned", barWidth, "actual")
	for _, row := range r.Rows(mode) {
		if row.Ellipsis {
			fmt.Fprintln(w, "  ⋮")
			continue
		}
		s := row.Slot
		marker := " "
		if s.Date.Equal(r.Today) {
			marker = "▸"
		}
		line := fmt.Sprintf("%s %s %s  %s  %s", marker, dates.Format(s.Date), dates.WeekdayName(s.Date.Weekday()), bar(s.Planned), bar(s.Actual))
		if s.Activity != "" {
			line += "  " + s.Activity
		}
		fmt.Fprintln(w, line)
	}
}
