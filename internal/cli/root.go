package cli

import (
	"time"

	"github.com/alexanderramin/retention/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	FilePlans   service.FilePlanService
	Schedules   service.ScheduleService
	Disposition service.DispositionService
	Holds       service.HoldService
	Vital       service.VitalRecordService
	Import      service.ImportService

	// Now is the clock used to render due dates. Defaults to time.Now.
	Now func() time.Time

	// Confirm overrides the interactive prompt shown before destroy.
	Confirm ConfirmFunc
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}
	return a.Now()
}

// NewRootCmd creates the top-level "rmctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "rmctl",
		Short:         "Records retention and disposition lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("actor", "rmctl", "User recorded on lifecycle changes")

	root.AddCommand(
		newFilePlanCmd(app),
		newCategoryCmd(app),
		newFolderCmd(app),
		newRecordCmd(app),
		newShowCmd(app),
		newMoveCmd(app),
		newCopyCmd(app),
		newDeleteCmd(app),
		newScheduleCmd(app),
		newStepCmd(app),
		newActionCmd(app),
		newEventCmd(app),
		newTransferCmd(app),
		newHoldCmd(app),
		newVitalCmd(app),
		newImportCmd(app),
	)

	return root
}

func actorFlag(cmd *cobra.Command) string {
	actor, _ := cmd.Flags().GetString("actor")
	return actor
}
