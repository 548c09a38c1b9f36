package cli

import (
	"fmt"

	"github.com/alexanderramin/retention/internal/cli/formatter"
	"github.com/alexanderramin/retention/internal/service"
	"github.com/spf13/cobra"
)

func newRecordCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "File, declare, and describe records",
	}

	cmd.AddCommand(
		newRecordFileCmd(app),
		newRecordDeclareCmd(app),
		newRecordSetIDCmd(app),
		newRecordPropsCmd(app),
		newRecordSetPropsCmd(app),
	)

	return cmd
}

func newRecordFileCmd(app *App) *cobra.Command {
	var folder, name, content, identifier string
	var props []string
	var declare bool

	cmd := &cobra.Command{
		Use:   "file",
		Short: "File a record into a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := resolveNode(ctx, app, folder)
			if err != nil {
				return err
			}
			properties, err := parseProps(props)
			if err != nil {
				return err
			}
			req := service.FileRecordRequest{
				Name:       name,
				Content:    content,
				Identifier: identifier,
				Properties: properties,
			}
			file := app.FilePlans.FileRecord
			if declare {
				file = app.FilePlans.FileAndDeclare
			}
			rec, err := file(ctx, f.ID, req)
			if err != nil {
				return err
			}
			printCreated(cmd, rec)
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "", "Target folder (ID or identifier)")
	cmd.Flags().StringVar(&name, "name", "", "Record name")
	cmd.Flags().StringVar(&content, "content", "", "Primary content")
	cmd.Flags().StringVar(&identifier, "identifier", "", "Unique identifier (generated when omitted)")
	cmd.Flags().StringArrayVar(&props, "prop", nil, "Property as key=value (repeatable)")
	cmd.Flags().BoolVar(&declare, "declare", false, "Declare the record after filing")
	_ = cmd.MarkFlagRequired("folder")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newRecordDeclareCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "declare REF",
		Short: "Declare a record, making its identifier immutable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rec, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			if rec, err = app.FilePlans.DeclareRecord(ctx, rec.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Declared %s (%s)\n", rec.Name, rec.Identifier)
			return nil
		},
	}
}

func newRecordSetIDCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-id REF IDENTIFIER",
		Short: "Change the identifier of an undeclared node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			if n, err = app.FilePlans.SetIdentifier(ctx, n.ID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Identifier of %s is now %s\n", n.Name, n.Identifier)
			return nil
		},
	}
}

func newRecordPropsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "props REF",
		Short: "List a node's properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			props, err := app.FilePlans.GetProperties(ctx, n.ID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.Properties(props))
			return nil
		},
	}
}

func newRecordSetPropsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-props REF KEY=VALUE...",
		Short: "Set properties; an empty value removes the property",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := resolveNode(ctx, app, args[0])
			if err != nil {
				return err
			}
			props, err := parseProps(args[1:])
			if err != nil {
				return err
			}
			if err := app.FilePlans.SetProperties(ctx, n.ID, props); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %d propert%s on %s\n", len(props), plural(len(props), "y", "ies"), n.Name)
			return nil
		},
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
