// Package cli is the stayahead command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/paleggworks/stayahead/pkg/config"
	"github.com/paleggworks/stayahead/pkg/gist"
	"github.com/paleggworks/stayahead/pkg/state"
	"github.com/paleggworks/stayahead/pkg/storage"
	"github.com/paleggworks/stayahead/pkg/syncer"
	"github.com/spf13/cobra"
)

// app is the environment shared by every command for one invocation.
type app struct {
	configPath string
	verbose    bool
	now        func() time.Time

	cfg     *config.Config
	store   *state.Store
	sync    *syncer.Coordinator
	closer  io.Closer
	unwatch func()

	// mutated is set by commands that changed tasks, so the calendar
	// mirror runs after them.
	mutated bool
}

// Execute runs the root command against the process arguments.
func Execute(version string) error {
	root := NewRootCommand()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(time.Now)
}

func newRootCommand(now func() time.Time) *cobra.Command {
	a := &app{now: now}

	root := &cobra.Command{
		Use:   "stayahead",
		Short: "Track recurring goals against the plan",
		Long: `StayAhead tracks recurring goals with a daily quota and shows how far
your logged effort is ahead of, or behind, the planned trajectory.

State can be backed up to a GitHub gist with push and pull.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/stayahead/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newCreateCmd(a),
		newLogCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newArchiveCmd(a),
		newRenameCmd(a),
		newDeleteCmd(a),
		newPushCmd(a),
		newPullCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newSettingsCmd(a),
		newCalendarCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	backend, err := a.openBackend()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a.store = state.Load(ctx, backend, state.WithClock(a.now))
	a.sync = syncer.New(a.store,
		syncer.GistRemote(
			gist.WithBaseURL(a.cfg.Sync.APIURL),
			gist.WithUserAgent(a.cfg.Sync.UserAgent),
			gist.WithTimeout(a.cfg.Sync.Timeout),
		),
		syncer.WithTimeout(a.cfg.Sync.Timeout),
	)
	a.unwatch = a.sync.Watch()

	if a.cfg.Sync.PullOnStart && !isSyncCommand(cmd) {
		if err := a.sync.PullOnStart(ctx); err != nil {
			slog.Warn("pull on start failed", "error", err)
		}
	}
	return nil
}

func (a *app) openBackend() (storage.Backend, error) {
	path, err := a.cfg.StatePath()
	if err != nil {
		return nil, err
	}
	slog.Debug("opening state", "backend", a.cfg.Storage.Backend, "path", path)

	if a.cfg.Storage.Backend == config.BackendSQLite {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err := storage.OpenSQLite(path, storage.StorageKey)
		if err != nil {
			return nil, err
		}
		a.closer = db
		return db, nil
	}
	return storage.NewFileBackend(path), nil
}

// finish waits for background pushes, reports the sync outcome and
// refreshes the calendar mirror.
func (a *app) finish(cmd *cobra.Command) error {
	defer a.close()

	a.sync.Wait()
	if msg := a.sync.Message(); msg != "" && !isSyncCommand(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "sync: %s\n", msg)
	}

	if a.mutated && a.cfg.Calendar.Enabled {
		if err := a.mirrorCalendar(cmd.Context(), cmd.OutOrStdout(), false); err != nil {
			slog.Warn("calendar mirror failed", "error", err)
		}
	}
	return nil
}

func (a *app) close() {
	if a.unwatch != nil {
		a.unwatch()
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			slog.Warn("failed to close storage", "error", err)
		}
	}
}

func isSyncCommand(cmd *cobra.Command) bool {
	return cmd.Name() == "push" || cmd.Name() == "pull"
}
