package cli

import (
	"fmt"

	"github.com/paleggworks/stayahead/pkg/storage"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Write the state to a JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := storage.ExportFileName
			if len(args) == 1 {
				path = args[0]
			}
			if err := storage.ExportFile(path, a.store.Snapshot()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Replace the state with an exported JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := storage.ImportFile(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Replace(cmd.Context(), doc); err != nil {
				return err
			}
			a.mutated = true
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s) from %s\n", len(doc.Tasks), args[0])
			return nil
		},
	}
}
