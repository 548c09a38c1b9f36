package cli

import (
	"fmt"

	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/spf13/cobra"
)

func newVitalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vital",
		Short: "Manage vital record review",
	}

	show := &cobra.Command{
		Use:   "show REF",
		Short: "Show the effective vital record definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			eff, err := app.Vital.GetDefinition(ctx, n.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatVital(n, eff))
			return nil
		},
	}

	var period string
	var disabled bool
	set := &cobra.Command{
		Use:   "set REF",
		Short: "Define vital record review on a node and its descendants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			p, err := domain.ParsePeriod(period)
			if err != nil {
				return err
			}
			def := domain.VitalRecordDefinition{Enabled: !disabled, ReviewPeriod: p}
			if err := app.Vital.SetDefinition(ctx, n.ID, def); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Vital record review on %s set to %s\n", n.Name, p)
			return nil
		},
	}
	set.Flags().StringVar(&period, "period", "", "Review period as unit|amount")
	set.Flags().BoolVar(&disabled, "disabled", false, "Define the record as not vital")
	_ = set.MarkFlagRequired("period")

	clearCmd := &cobra.Command{
		Use:   "clear REF",
		Short: "Remove the explicit definition so the node inherits again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Vital.ClearDefinition(ctx, n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared vital record definition on %s\n", n.Name)
			return nil
		},
	}

	review := &cobra.Command{
		Use:   "review REF",
		Short: "Record a vital record review and schedule the next one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			if n, err = app.Vital.Review(ctx, n.ID, actorFlag(cmd)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reviewed %s; next review %s\n", n.Name, formatter.Date(n.ReviewAsOf))
			return nil
		},
	}

	cmd.AddCommand(show, set, clearCmd, review)
	return cmd
}
