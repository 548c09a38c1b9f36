package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import a file plan from a YAML description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.ImportFilePlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported file plan %s (%s): %d categories, %d folders, %d records, %d schedules\n",
				res.FilePlan.Name, res.FilePlan.Identifier,
				res.CategoryCount, res.FolderCount, res.RecordCount, res.ScheduleCount)
			return nil
		},
	}
}
