package cli

import (
	"fmt"

	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/service"
	"github.com/spf13/cobra"
)

func newActionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Inspect and execute disposition actions",
	}

	cmd.AddCommand(
		newActionNextCmd(app),
		newActionHistoryCmd(app),
		newActionEligibleCmd(app),
		newActionExecuteCmd(app),
		newActionUndoCutoffCmd(app),
		newActionAsOfCmd(app),
	)

	return cmd
}

func newActionNextCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "next REF",
		Short: "Show the next disposition action of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			next, err := app.Disposition.GetNextAction(ctx, n.ID)
			if err != nil {
				return err
			}
			if next == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no pending disposition action.\n", n.Name)
				return nil
			}
			return printAction(cmd, app, n.ID, next)
		},
	}
}

func newActionHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history REF",
		Short: "List completed disposition actions, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			history, err := app.Disposition.GetCompletedActions(ctx, n.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(history))
			return nil
		},
	}
}

func newActionEligibleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "eligible REF",
		Short: "Evaluate whether the next action may run now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			el, err := app.Disposition.IsEligible(ctx, n.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEligibility(el))
			return nil
		},
	}
}

func newActionExecuteCmd(app *App) *cobra.Command {
	var force, yes bool

	cmd := &cobra.Command{
		Use:   "execute REF ACTION",
		Short: "Execute the node's current disposition step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			if args[1] == domain.ActionDestroy {
				if err := confirmDestroy(app, n, yes); err != nil {
					return err
				}
			}
			res, err := app.Disposition.Execute(ctx, service.ExecuteRequest{
				NodeID: n.ID,
				Action: args[1],
				Actor:  actorFlag(cmd),
				Force:  force,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Executed %s on %s\n", res.Executed.Name, n.Name)
			switch {
			case res.TransferID != "":
				fmt.Fprintf(out, "Pending %s %s\n", res.Executed.Name, res.TransferID)
			case res.Next != nil:
				fmt.Fprintf(out, "Next: %s as of %s\n", res.Next.Name, formatter.Date(res.Next.AsOf))
			default:
				fmt.Fprintln(out, "Lifecycle complete.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the eligibility check")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Destroy without asking for confirmation")

	return cmd
}

func newActionUndoCutoffCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "undo-cutoff REF",
		Short: "Reverse the most recent cutoff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			next, err := app.Disposition.UndoCutoff(ctx, n.ID, actorFlag(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cutoff undone on %s; next: %s\n", n.Name, next.Name)
			return nil
		},
	}
}

func newActionAsOfCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "as-of REF DATE",
		Short: "Override the as-of date of the next action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			asOf, err := parseDate(args[1])
			if err != nil {
				return err
			}
			next, err := app.Disposition.EditAsOfDate(ctx, n.ID, asOf)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s on %s is now due %s\n", next.Name, n.Name, formatter.Date(next.AsOf))
			return nil
		},
	}
}

func newEventCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Complete or undo events of the current step",
	}

	var at string
	complete := &cobra.Command{
		Use:   "complete REF EVENT",
		Short: "Mark an event complete",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			req := service.EventRequest{NodeID: n.ID, Event: args[1], CompletedBy: actorFlag(cmd)}
			if at != "" {
				t, err := parseDate(at)
				if err != nil {
					return err
				}
				req.CompletedAt = &t
			}
			a, err := app.Disposition.CompleteEvent(ctx, req)
			if err != nil {
				return err
			}
			return printAction(cmd, app, n.ID, a)
		},
	}
	complete.Flags().StringVar(&at, "at", "", "Completion date (defaults to now)")

	undo := &cobra.Command{
		Use:   "undo REF EVENT",
		Short: "Reverse an event completion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			a, err := app.Disposition.UndoEvent(ctx, service.EventRequest{NodeID: n.ID, Event: args[1], CompletedBy: actorFlag(cmd)})
			if err != nil {
				return err
			}
			return printAction(cmd, app, n.ID, a)
		},
	}

	cmd.AddCommand(complete, undo)
	return cmd
}

func newTransferCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Manage pending transfers and accessions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List pending transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			transfers, err := app.Disposition.ListTransfers(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTransfers(transfers))
			return nil
		},
	}

	complete := &cobra.Command{
		Use:   "complete TRANSFER_ID",
		Short: "Confirm a transfer left the file plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := app.Disposition.CompleteTransfer(cmd.Context(), args[0], actorFlag(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transfer %s complete\n", args[0])
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNodeList(nodes))
			return nil
		},
	}

	cmd.AddCommand(list, complete)
	return cmd
}

func printAction(cmd *cobra.Command, app *App, nodeID string, a *domain.DispositionAction) error {
	el, err := app.Disposition.IsEligible(cmd.Context(), nodeID)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNextAction(a, el, app.now()))
	return nil
}
