package cli

import (
	"fmt"

	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/service"
	"github.com/spf13/cobra"
)

func newHoldCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hold",
		Short: "Manage legal holds",
	}

	cmd.AddCommand(
		newHoldCreateCmd(app),
		newHoldFreezeCmd(app),
		newHoldUnfreezeCmd(app),
		newHoldReasonCmd(app),
		newHoldRelinquishCmd(app),
		newHoldListCmd(app),
		newHoldHeldCmd(app),
	)

	return cmd
}

func newHoldCreateCmd(app *App) *cobra.Command {
	var filePlan, name, reason, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty hold in a file plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fp, err := resolveNode(ctx, app, filePlan)
			if err != nil {
				return err
			}
			h, err := app.Holds.CreateHold(ctx, fp.ID, name, reason, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created hold %s (%s)\n", h.Name, h.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&filePlan, "fileplan", "", "File plan (ID or identifier)")
	cmd.Flags().StringVar(&name, "name", "", "Hold name")
	cmd.Flags().StringVar(&reason, "reason", "", "Hold reason")
	cmd.Flags().StringVar(&description, "description", "", "Hold description")
	_ = cmd.MarkFlagRequired("fileplan")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("reason")

	return cmd
}

func newHoldFreezeCmd(app *App) *cobra.Command {
	var holdID, name, reason, description string

	cmd := &cobra.Command{
		Use:   "freeze REF...",
		Short: "Place nodes under a hold, creating the hold when needed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids, err := resolveNodeIDs(ctx, app, args)
			if err != nil {
				return err
			}
			h, err := app.Holds.Freeze(ctx, service.FreezeRequest{
				NodeIDs:     ids,
				HoldID:      holdID,
				Name:        name,
				Reason:      reason,
				Description: description,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Froze %d node(s) under hold %s (%s)\n", len(ids), h.Name, h.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&holdID, "hold", "", "Existing hold ID")
	cmd.Flags().StringVar(&name, "name", "", "Hold name for a new hold (generated when omitted)")
	cmd.Flags().StringVar(&reason, "reason", "", "Hold reason for a new hold")
	cmd.Flags().StringVar(&description, "description", "", "Hold description for a new hold")
	cmd.MarkFlagsMutuallyExclusive("hold", "name")

	return cmd
}

func newHoldUnfreezeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "unfreeze HOLD_ID REF...",
		Short: "Release nodes from a hold",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids, err := resolveNodeIDs(ctx, app, args[1:])
			if err != nil {
				return err
			}
			if err := app.Holds.Unfreeze(ctx, args[0], ids...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Released %d node(s) from hold %s\n", len(ids), args[0])
			return nil
		},
	}
}

func newHoldReasonCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reason HOLD_ID REASON",
		Short: "Change the reason of a hold",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.Holds.EditHoldReason(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Hold %s reason: %s\n", h.Name, h.Reason)
			return nil
		},
	}
}

func newHoldRelinquishCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "relinquish HOLD_ID",
		Short: "Delete a hold, releasing every node it covers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Holds.RelinquishHold(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Relinquished hold %s\n", args[0])
			return nil
		},
	}
}

func newHoldListCmd(app *App) *cobra.Command {
	var filePlan string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the holds of a file plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fp, err := resolveNode(ctx, app, filePlan)
			if err != nil {
				return err
			}
			holds, err := app.Holds.ListHolds(ctx, fp.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHolds(holds))
			return nil
		},
	}

	cmd.Flags().StringVar(&filePlan, "fileplan", "", "File plan (ID or identifier)")
	_ = cmd.MarkFlagRequired("fileplan")

	return cmd
}

func newHoldHeldCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "held HOLD_ID",
		Short: "List the nodes directly covered by a hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := app.Holds.GetHeld(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNodeList(nodes))
			return nil
		},
	}
}
