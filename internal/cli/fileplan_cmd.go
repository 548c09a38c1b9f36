package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/domain"
	"github.com/spf13/cobra"
)

func newFilePlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fileplan",
		Short: "Manage file plans",
	}

	cmd.AddCommand(
		newFilePlanCreateCmd(app),
		newFilePlanListCmd(app),
		newFilePlanTreeCmd(app),
	)

	return cmd
}

func newFilePlanCreateCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a file plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			fp, err := app.FilePlans.CreateFilePlan(cmd.Context(), name)
			if err != nil {
				return err
			}
			printCreated(cmd, fp)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "File plan name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newFilePlanListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List file plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := app.FilePlans.ListFilePlans(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNodeList(plans))
			return nil
		},
	}
}

func newFilePlanTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree REF",
		Short: "Show the hierarchy below a node with each node's next action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			root, err := buildTree(ctx, app, n)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderTree(root))
			return nil
		},
	}
}

func buildTree(ctx context.Context, app *App, n *domain.Node) (*formatter.TreeNode, error) {
	t := &formatter.TreeNode{Node: n}
	next, err := app.Disposition.GetNextAction(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		t.Detail = next.Name + " " + formatter.Date(next.AsOf)
	}
	if !n.IsContainer() {
		return t, nil
	}
	kids, err := app.FilePlans.ListChildren(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	for _, k := range kids {
		child, err := buildTree(ctx, app, k)
		if err != nil {
			return nil, err
		}
		t.Children = append(t.Children, child)
	}
	return t, nil
}

func newCategoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage record categories",
	}

	var parent, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a category under a file plan or category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := resolveNode(ctx, app, parent)
			if err != nil {
				return err
			}
			c, err := app.FilePlans.CreateCategory(ctx, p.ID, name)
			if err != nil {
				return err
			}
			printCreated(cmd, c)
			return nil
		},
	}
	create.Flags().StringVar(&parent, "parent", "", "Parent file plan or category (ID or identifier)")
	create.Flags().StringVar(&name, "name", "", "Category name")
	_ = create.MarkFlagRequired("parent")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func newFolderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage record folders",
	}

	var category, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a folder under a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := resolveNode(ctx, app, category)
			if err != nil {
				return err
			}
			f, err := app.FilePlans.CreateFolder(ctx, c.ID, name)
			if err != nil {
				return err
			}
			printCreated(cmd, f)
			return nil
		},
	}
	create.Flags().StringVar(&category, "category", "", "Parent category (ID or identifier)")
	create.Flags().StringVar(&name, "name", "", "Folder name")
	_ = create.MarkFlagRequired("category")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(
		create,
		newFolderStateCmd(app, "close", "Close a folder to new records", func(ctx context.Context, id string) (*domain.Node, error) {
			return app.FilePlans.CloseFolder(ctx, id)
		}),
		newFolderStateCmd(app, "reopen", "Reopen a closed folder", func(ctx context.Context, id string) (*domain.Node, error) {
			return app.FilePlans.ReopenFolder(ctx, id)
		}),
	)
	return cmd
}

func newFolderStateCmd(app *App, use, short string, apply func(context.Context, string) (*domain.Node, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " REF",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			f, err = apply(ctx, f.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Folder %s is now %s\n", f.Name, formatter.StatePill(f))
			return nil
		},
	}
}

func printCreated(cmd *cobra.Command, n *domain.Node) {
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s) %s\n", n.Kind, n.Name, n.Identifier, formatter.Dim(n.ID))
}
