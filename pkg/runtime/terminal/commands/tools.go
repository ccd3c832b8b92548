package commands

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/report-atlas/pkg/services/catalog"
)

type ToolsCmd struct {
	profile  string
	isTool   bool
	status   bool
	env      *Env
	reporter *export.Reporter
}

func NewToolsCmd(env *Env, reporter *export.Reporter) *cobra.Command {
	tc := &ToolsCmd{env: env, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "tools NAME",
		Short: "Print the tool hierarchy below a toolset or tool name",
		Args:  cobra.ExactArgs(1),
		RunE:  tc.run,
	}

	cmd.Flags().StringVar(&tc.profile, "profile", "", "Data source profile holding the entity catalog")
	cmd.Flags().BoolVar(&tc.isTool, "tool", false, "NAME is a tool rather than a toolset")
	cmd.Flags().BoolVar(&tc.status, "state", false, "Also read the status of every tool")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func (tc *ToolsCmd) run(cmd *cobra.Command, args []string) error {
	return tc.env.WithProfile(cmd.Context(), tc.profile, func(ctx context.Context, db *sql.DB, profile domain.DataSourceProfile) error {
		var opts []catalog.TreeOption
		if tc.status {
			opts = append(opts, catalog.WithStatus())
		}

		explorer := catalog.NewExplorer(db, catalog.WithPlaceholder(profile.Placeholder))
		tree, err := explorer.Tool(args[0], tc.isTool).Tree(ctx, opts...)
		if err != nil {
			return err
		}
		return tc.reporter.Tree(tree)
	})
}
