package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPushCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the local state to the sync gist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sync.Push(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.sync.Message())
			return nil
		},
	}
}

func newPullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace the local state with the sync gist",
		Long: `Replace every local task and setting with the content of the sync gist.
Local changes that were never pushed are lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sync.Pull(cmd.Context()); err != nil {
				return err
			}
			a.mutated = true
			fmt.Fprintln(cmd.OutOrStdout(), a.sync.Message())
			return nil
		},
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the sync settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the sync settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := a.store.Credentials()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token:     %s\n", maskToken(creds.Token))
			fmt.Fprintf(out, "gist id:   %s\n", orUnset(creds.GistID))
			fmt.Fprintf(out, "file name: %s\n", orUnset(creds.FileName))
			mode, msg := a.store.SyncStatus()
			fmt.Fprintf(out, "status:    %s", mode)
			if msg != "" {
				fmt.Fprintf(out, " (%s)", msg)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	var token, gistID, fileName string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change the sync settings",
		Long: `Change the sync settings. Only the flags given are changed; pass an
empty value to clear one. The token is stored obfuscated, not encrypted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := a.store.Credentials()
			flags := cmd.Flags()
			if flags.Changed("token") {
				creds.Token = token
			}
			if flags.Changed("gist-id") {
				creds.GistID = gistID
			}
			if flags.Changed("file-name") {
				creds.FileName = fileName
			}
			a.store.SetCredentials(cmd.Context(), creds)

			if creds.Complete() {
				fmt.Fprintln(cmd.OutOrStdout(), "Sync settings saved.")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Sync settings saved; token, gist id and file name are all needed to sync.")
			}
			return nil
		},
	}
	set.Flags().StringVar(&token, "token", "", "GitHub personal access token with gist scope")
	set.Flags().StringVar(&gistID, "gist-id", "", "Id of the gist holding the state")
	set.Flags().StringVar(&fileName, "file-name", "", "File inside the gist")

	cmd.AddCommand(show, set)
	return cmd
}

func maskToken(token string) string {
	switch {
	case token == "":
		return "(not set)"
	case len(token) <= 8:
		return "********"
	}
	return token[:4] + "…" + token[len(token)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
