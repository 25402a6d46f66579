package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paleggworks/stayahead/pkg/dates"
	"github.com/paleggworks/stayahead/pkg/progress"
	"github.com/paleggworks/stayahead/pkg/state"
	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		d, err := dates.ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		action string
		count  float64
		unit   string
		start  string
		end    string
		days   []string
		daily  []string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Long: `Create a task with a daily quota, or with --daily a list of specific
activities, one per effective day. In that mode the end date is derived.`,
		Example: `  stayahead create --action read --count 10 --unit pages --end 2024-03-31 --days Mon,Wed,Fri
  stayahead create --daily "squats,push-ups,plank" --days Tue,Thu --name "Workout plan"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := state.NewTask{
				Action:      action,
				CountPerDay: count,
				Unit:        unit,
				Name:        name,
			}

			var err error
			n.Start = dates.Day(a.now())
			if start != "" {
				if n.Start, err = dates.Parse(start); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}
			if end != "" {
				if n.End, err = dates.Parse(end); err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
			}
			if n.EffectiveDow, err = parseWeekdays(days); err != nil {
				return err
			}
			if cmd.Flags().Changed("daily") {
				n.DailyTasks = append([]string{}, daily...)
			} else if end == "" {
				return errors.New("--end is required unless --daily is given")
			}

			task, err := a.store.CreateTask(cmd.Context(), n)
			if err != nil {
				return err
			}
			a.mutated = true

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Task created: %d\n", task.ID)
			fmt.Fprintf(out, "  %s\n", task.Label())
			fmt.Fprintf(out, "  %s → %s on %s\n", dates.Format(task.Start), dates.Format(task.End), weekdayList(task.EffectiveDow))
			return nil
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", "", "What to do, e.g. \"read\"")
	cmd.Flags().Float64VarP(&count, "count", "c", 1, "Quota per effective day")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "Unit of the quota, e.g. \"pages\"")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD")
	cmd.Flags().StringSliceVar(&days, "days", []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, "Effective weekdays")
	cmd.Flags().StringSliceVar(&daily, "daily", nil, "Specific activity per effective day")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	return cmd
}

func weekdayList(days []time.Weekday) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, dates.WeekdayName(d))
	}
	return strings.Join(names, ", ")
}

func newLogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log <id> <amount>",
		Short: "Log progress on a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			msg, err := a.store.LogProgress(cmd.Context(), id, amount)
			if err != nil {
				return err
			}
			a.mutated = true
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active or archived tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks := a.store.Filter(archived)
			kind := "active"
			if archived {
				kind = "archived"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "You have %d %s task(s):\n", len(tasks), kind)
			for _, task := range tasks {
				report := progress.Compute(task, a.now())
				fmt.Fprintf(out, "  [%d] %s  %s\n", task.ID, task.Label(), summaryLine(report))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&archived, "archived", false, "Show archived tasks")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var collapse string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the planned and actual timeline of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			mode, err := parseCollapse(collapse)
			if err != nil {
				return err
			}
			report, err := a.store.Report(id)
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), report, mode)
			return nil
		},
	}

	cmd.Flags().StringVar(&collapse, "collapse", "none", "Hide leading days: none, today or done")
	return cmd
}

func parseCollapse(s string) (progress.CollapseMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return progress.CollapseNone, nil
	case "today":
		return progress.CollapseToToday, nil
	case "done":
		return progress.CollapseToDone, nil
	}
	return progress.CollapseNone, fmt.Errorf("unknown collapse mode %q", s)
}

func newArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a task, or restore an archived one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			archived, err := a.store.ToggleArchive(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.mutated = true

			if archived {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d archived\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d restored\n", id)
			}
			return nil
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> [name]",
		Short: "Set or clear the display name of a task",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			if err := a.store.Rename(cmd.Context(), id, name); err != nil {
				return err
			}
			a.mutated = true

			task, err := a.store.Task(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %q\n", id, task.Label())
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			err = a.store.Delete(cmd.Context(), id, yes)
			if errors.Is(err, state.ErrNotConfirmed) {
				task, _ := a.store.Task(id)
				fmt.Fprintf(cmd.OutOrStdout(), "This permanently deletes %q. Re-run with --yes to confirm.\n", task.Label())
				return nil
			}
			if err != nil {
				return err
			}
			a.mutated = true
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d deleted\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}
