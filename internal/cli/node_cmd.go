package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/alexanderramin/retention/internal/repository"
	"github.com/spf13/cobra"
)

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show REF",
		Short: "Show a node with its retention summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatNode(n))

			p, err := app.Disposition.GetProjection(ctx, n.ID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				p = &domain.Projection{NodeID: n.ID}
			case err != nil:
				return err
			}
			fmt.Fprint(out, "\n"+formatter.FormatProjection(p))

			if n.IsContainer() {
				kids, err := app.FilePlans.ListChildren(ctx, n.ID)
				if err != nil {
					return err
				}
				if len(kids) > 0 {
					fmt.Fprint(out, "\n"+formatter.FormatNodeList(kids))
				}
			}
			return nil
		},
	}
}

func newMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move REF NEW_PARENT",
		Short: "Refile a node under a new parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			parent, err := resolveNode(ctx, app, args[1])
			if err != nil {
				return err
			}
			if n, err = app.FilePlans.Move(ctx, n.ID, parent.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %s under %s\n", n.Name, parent.Name)
			return nil
		},
	}
}

func newCopyCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "copy REF TARGET_PARENT",
		Short: "Copy a node and its subtree under a new parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			target, err := resolveNode(ctx, app, args[1])
			if err != nil {
				return err
			}
			dup, err := app.FilePlans.Copy(ctx, n.ID, target.ID)
			if err != nil {
				return err
			}
			printCreated(cmd, dup)
			return nil
		},
	}
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete REF",
		Short: "Delete a node and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.FilePlans.Delete(ctx, n.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", n.Kind, n.Name)
			return nil
		},
	}
}
