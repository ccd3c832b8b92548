package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/report-atlas/pkg/ingest"
	"github.com/de-tools/report-atlas/pkg/models/domain"
	"github.com/de-tools/report-atlas/pkg/runtime/terminal/export"
)

type FetchCmd struct {
	names    map[string]string
	profile  string
	reporter *export.Reporter
}

// NewFetchCmd loads tables the same way a report does and prints them.
func NewFetchCmd(env *Env, reporter *export.Reporter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Load tables from files or a data source and print them",
	}

	formats := ingest.NewFileRegistry(env.Opener)
	for _, format := range formats.ListFormats() {
		use, ok := fileUsage[format]
		if !ok {
			use = format + " PATH..."
		}
		cmd.AddCommand(newFetchSubCmd(reporter, format, use, "Load "+format+" files (local or s3://)",
			func(ctx context.Context, fc *FetchCmd, args []any) (ingest.Result, error) {
				reader, err := formats.Create(format)
				if err != nil {
					return ingest.Result{}, err
				}
				return ingest.Load(ctx, reader, args...)
			}))
	}

	sqlCmd := newFetchSubCmd(reporter, "sql", "sql QUERY...", "Run queries against a data source profile",
		func(ctx context.Context, fc *FetchCmd, args []any) (ingest.Result, error) {
			var res ingest.Result
			err := env.WithProfile(ctx, fc.profile, func(ctx context.Context, db *sql.DB, _ domain.DataSourceProfile) error {
				var err error
				res, err = ingest.SQL(ctx, db, args...)
				return err
			})
			return res, err
		})
	cmd.AddCommand(sqlCmd)

	return cmd
}

var fileUsage = map[string]string{
	ingest.FormatExcel: "excel PATH[#SHEET]...",
}

type loadFunc func(ctx context.Context, fc *FetchCmd, args []any) (ingest.Result, error)

func newFetchSubCmd(reporter *export.Reporter, format, use, short string, load loadFunc) *cobra.Command {
	fc := &FetchCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return fc.run(cmd, args, load)
		},
	}

	cmd.Flags().StringToStringVar(&fc.names, "name", nil, "Load as a named table, e.g. --name ships=ships.csv (repeatable)")
	if format == ingest.FormatSQL {
		cmd.Flags().StringVar(&fc.profile, "profile", "", "Data source profile to query")
		_ = cmd.MarkFlagRequired("profile")
	}
	return cmd
}

func (fc *FetchCmd) run(cmd *cobra.Command, args []string, load loadFunc) error {
	var in []any
	switch {
	case len(fc.names) > 0 && len(args) > 0:
		return fmt.Errorf("use either positional arguments or --name, not both")
	case len(fc.names) > 0:
		in = []any{fc.names}
	default:
		for _, a := range args {
			in = append(in, a)
		}
	}

	res, err := load(cmd.Context(), fc, in)
	if err != nil {
		return err
	}

	switch res.Shape {
	case ingest.ShapeSingle:
		return fc.reporter.Frame(args[0], res.Single)
	case ingest.ShapeList:
		for i, df := range res.List {
			if err := fc.reporter.Frame(args[i], df); err != nil {
				return err
			}
		}
	default:
		for _, k := range res.Keys() {
			if err := fc.reporter.Frame(k, res.Named[k]); err != nil {
				return err
			}
		}
	}
	return nil
}
