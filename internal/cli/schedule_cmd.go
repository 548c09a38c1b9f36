package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/service"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage disposition schedules",
	}

	cmd.AddCommand(
		newScheduleCreateCmd(app),
		newScheduleShowCmd(app),
		newScheduleUpdateCmd(app),
	)

	return cmd
}

func newScheduleCreateCmd(app *App) *cobra.Command {
	var category, instructions, authority string
	var recordLevel bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Attach a disposition schedule to a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveNode(ctx, app, category)
			if err != nil {
				return err
			}
			sched, err := app.Schedules.CreateSchedule(ctx, c.ID, service.ScheduleSpec{
				Instructions:           instructions,
				Authority:              authority,
				RecordLevelDisposition: recordLevel,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created schedule %s on %s\n", sched.ID, c.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Owning category (ID or identifier)")
	cmd.Flags().StringVar(&instructions, "instructions", "", "Disposition instructions")
	cmd.Flags().StringVar(&authority, "authority", "", "Disposition authority")
	cmd.Flags().BoolVar(&recordLevel, "record-level", false, "Apply disposition to individual records instead of folders")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newScheduleShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show REF",
		Short: "Show the schedule governing a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			sched, err := app.Schedules.GetSchedule(ctx, n.ID)
			if err != nil {
				return err
			}
			if sched == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not governed by a disposition schedule.\n", n.Name)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSchedule(sched))
			return nil
		},
	}
}

func newScheduleUpdateCmd(app *App) *cobra.Command {
	var instructions, authority string
	var recordLevel bool

	cmd := &cobra.Command{
		Use:   "update SCHEDULE_ID",
		Short: "Change schedule instructions, authority, or disposition level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			upd := service.ScheduleUpdate{
				Instructions:           optional(flags, "instructions", instructions),
				Authority:              optional(flags, "authority", authority),
				RecordLevelDisposition: optional(flags, "record-level", recordLevel),
			}
			sched, err := app.Schedules.UpdateSchedule(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSchedule(sched))
			return nil
		},
	}

	cmd.Flags().StringVar(&instructions, "instructions", "", "Disposition instructions")
	cmd.Flags().StringVar(&authority, "authority", "", "Disposition authority")
	cmd.Flags().BoolVar(&recordLevel, "record-level", false, "Apply disposition to individual records")

	return cmd
}

func newStepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Manage disposition schedule steps",
	}

	cmd.AddCommand(
		newStepAddCmd(app),
		newStepUpdateCmd(app),
		newStepRemoveCmd(app),
	)

	return cmd
}

func newStepAddCmd(app *App) *cobra.Command {
	var scheduleID, name, description, period, periodProperty string
	var events []string
	var firstEvent bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a step to a schedule",
		Example: `  rmctl step add --schedule SCHED --name cutoff --event "case closed"
  rmctl step add --schedule SCHED --name destroy --period year|6 --period-property cutOffDate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePeriodFlag(period)
			if err != nil {
				return err
			}
			spec := service.StepSpec{
				Name:                         name,
				Description:                  description,
				Period:                       p,
				Events:                       events,
				EligibleOnFirstCompleteEvent: firstEvent,
			}
			if periodProperty != "" {
				spec.PeriodProperty = &periodProperty
			}
			def, err := app.Schedules.AddStep(cmd.Context(), scheduleID, spec)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStep(def))
			return nil
		},
	}

	cmd.Flags().StringVar(&scheduleID, "schedule", "", "Schedule ID")
	cmd.Flags().StringVar(&name, "name", "", "Step name (cutoff, retain, transfer, accession, destroy, or custom)")
	cmd.Flags().StringVar(&description, "description", "", "Step description")
	cmd.Flags().StringVar(&period, "period", "", "Period as unit|amount, e.g. year|6")
	cmd.Flags().StringVar(&periodProperty, "period-property", "", "Node property the period is counted from")
	cmd.Flags().StringArrayVar(&events, "event", nil, "Event that must complete (repeatable)")
	cmd.Flags().BoolVar(&firstEvent, "first-event", false, "Eligible as soon as any one event completes")
	_ = cmd.MarkFlagRequired("schedule")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newStepUpdateCmd(app *App) *cobra.Command {
	var name, description, period, periodProperty string
	var events []string
	var firstEvent, clearPeriod, clearProperty bool

	cmd := &cobra.Command{
		Use:   "update STEP_ID",
		Short: "Edit a step; nodes currently at the step are recalculated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			upd := domain.StepUpdate{
				Name:                         optional(flags, "name", name),
				Description:                  optional(flags, "description", description),
				PeriodProperty:               optional(flags, "period-property", periodProperty),
				EligibleOnFirstCompleteEvent: optional(flags, "first-event", firstEvent),
				ClearPeriod:                  clearPeriod,
				ClearPeriodProperty:          clearProperty,
			}
			if flags.Changed("period") {
				p, err := parsePeriodFlag(period)
				if err != nil {
					return err
				}
				upd.Period = p
			}
			if flags.Changed("event") || flags.Changed("no-events") {
				upd.Events = &events
			}

			changed, err := app.Schedules.UpdateStep(cmd.Context(), args[0], upd)
			if err != nil {
				return err
			}
			if len(changed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", strings.Join(changed, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Step name")
	cmd.Flags().StringVar(&description, "description", "", "Step description")
	cmd.Flags().StringVar(&period, "period", "", "Period as unit|amount")
	cmd.Flags().BoolVar(&clearPeriod, "clear-period", false, "Remove the period")
	cmd.Flags().StringVar(&periodProperty, "period-property", "", "Node property the period is counted from")
	cmd.Flags().BoolVar(&clearProperty, "clear-period-property", false, "Count the period from the default basis")
	cmd.Flags().StringArrayVar(&events, "event", nil, "Replacement event list (repeatable)")
	cmd.Flags().Bool("no-events", false, "Remove all events")
	cmd.Flags().BoolVar(&firstEvent, "first-event", false, "Eligible as soon as any one event completes")
	cmd.MarkFlagsMutuallyExclusive("period", "clear-period")
	cmd.MarkFlagsMutuallyExclusive("period-property", "clear-period-property")
	cmd.MarkFlagsMutuallyExclusive("event", "no-events")

	return cmd
}

func newStepRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove STEP_ID",
		Short: "Remove a step no node currently occupies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Schedules.RemoveStep(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed step %s\n", args[0])
			return nil
		},
	}
}
