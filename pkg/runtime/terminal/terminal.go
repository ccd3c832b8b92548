package terminal

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/report-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/report-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/report-atlas/pkg/services/job"
	"github.com/de-tools/report-atlas/pkg/services/mailer"
	"github.com/de-tools/report-atlas/pkg/store/files"
)

// CLI represents the command-line interface
type CLI struct {
	env      *commands.Env
	reporter *export.Reporter
	rootCmd  *cobra.Command
	verbose  bool
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	// Args replaces os.Args[1:] when set.
	Args      []string
	Opener    files.Opener
	Connector job.Connector
	Sender    mailer.Sender
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Opener == nil {
		opts.Opener = files.NewOpener(nil)
	}

	cli := &CLI{
		env: &commands.Env{
			Opener:  opts.Opener,
			Connect: opts.Connector,
			Sender:  opts.Sender,
		},
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	if opts.Args != nil {
		cli.rootCmd.SetArgs(opts.Args)
	}
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI; ctx should carry the root logger.
func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "report-atlas",
		Short:         "Load tables, build HTML reports and email them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if cli.verbose {
				level = zerolog.DebugLevel
			}
			logger := zerolog.Ctx(cmd.Context()).Level(level)
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}

	cmd.PersistentFlags().StringVar(&cli.env.ProfilesPath, "profiles", "", "Path to the data source profiles file (default $HOME/.reportatlascfg)")
	cmd.PersistentFlags().BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(commands.NewFetchCmd(cli.env, cli.reporter))
	cmd.AddCommand(commands.NewSendCmd(cli.env, cli.reporter))
	cmd.AddCommand(commands.NewPreviewCmd(cli.env))
	cmd.AddCommand(commands.NewToolsCmd(cli.env, cli.reporter))

	return cmd
}
