package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paleggworks/stayahead/pkg/auth"
	"github.com/paleggworks/stayahead/pkg/config"
	"github.com/paleggworks/stayahead/pkg/google"
	"github.com/paleggworks/stayahead/pkg/index"
	"github.com/spf13/cobra"
)

var errNotAuthorized = errors.New("calendar not authorized, run 'stayahead calendar auth' first")

func newCalendarCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Mirror tasks into Google Calendar",
	}

	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.GetXdgHome()
			if err != nil {
				return err
			}
			if err := auth.RemoveToken(dir); err != nil {
				return fmt.Errorf("could not delete token file, please delete it manually: %w", err)
			}
			if _, err := auth.GetCalendarService(cmd.Context(), dir, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", filepath.Join(dir, auth.TokenFile))
			return nil
		},
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror every task into the calendar now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.mirrorCalendar(cmd.Context(), cmd.OutOrStdout(), true)
		},
	}

	cmd.AddCommand(authCmd, syncCmd)
	return cmd
}

// mirrorCalendar pushes all tasks to the configured calendar. Unless
// interactive, a missing token is reported as errNotAuthorized instead of
// starting the browser flow.
func (a *app) mirrorCalendar(ctx context.Context, out io.Writer, interactive bool) error {
	dir, err := config.GetXdgHome()
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, auth.TokenFile)); err != nil && !interactive {
		return errNotAuthorized
	}

	srv, err := auth.GetCalendarService(ctx, dir, out)
	if err != nil {
		return err
	}
	idx, err := index.NewEventIndex(filepath.Join(dir, index.FileName))
	if err != nil {
		return err
	}
	client, err := google.NewClient(ctx, srv, a.cfg.Calendar.Name, idx)
	if err != nil {
		return err
	}

	result, err := client.Mirror(ctx, a.store.Tasks(), a.now())
	if interactive {
		fmt.Fprintf(out, "Calendar %q: %d synced, %d removed, %d skipped\n",
			a.cfg.Calendar.Name, result.Synced, result.Removed, result.Skipped)
	}
	return err
}
