package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/report-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/report-atlas/pkg/services/config"
)

type SendCmd struct {
	jobPath  string
	dryRun   bool
	env      *Env
	reporter *export.Reporter
}

func NewSendCmd(env *Env, reporter *export.Reporter) *cobra.Command {
	sc := &SendCmd{env: env, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Build a report job and email it",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.jobPath, "job", "", "Path to the report job file")
	cmd.Flags().BoolVar(&sc.dryRun, "dry-run", false, "Build the report without sending it")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func (sc *SendCmd) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	job, err := config.LoadJob(sc.jobPath)
	if err != nil {
		return err
	}
	runner, err := sc.env.Runner()
	if err != nil {
		return err
	}

	if sc.dryRun {
		b, err := runner.Build(ctx, job)
		if err != nil {
			return err
		}
		return sc.reporter.Summary(export.SendSummary{
			Job: job.Name, Subject: job.Email.Subject, From: job.Email.From,
			Recipients: job.Email.To, Parts: b.String(),
		})
	}

	b, err := runner.Run(ctx, job)
	if err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	return sc.reporter.Summary(export.SendSummary{
		Job: job.Name, Subject: job.Email.Subject, From: job.Email.From,
		Recipients: job.Email.To, Parts: b.String(), Sent: b.Sent(),
	})
}

type PreviewCmd struct {
	jobPath string
	outPath string
	env     *Env
}

func NewPreviewCmd(env *Env) *cobra.Command {
	pc := &PreviewCmd{env: env}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Build a report job and write its HTML body",
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.jobPath, "job", "", "Path to the report job file")
	cmd.Flags().StringVar(&pc.outPath, "out", "", "Write the HTML to this file instead of stdout")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func (pc *PreviewCmd) run(cmd *cobra.Command, args []string) error {
	job, err := config.LoadJob(pc.jobPath)
	if err != nil {
		return err
	}
	runner, err := pc.env.Runner()
	if err != nil {
		return err
	}
	b, err := runner.Build(cmd.Context(), job)
	if err != nil {
		return err
	}

	if pc.outPath == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), b.HTML())
		return err
	}
	if err := os.WriteFile(pc.outPath, []byte(b.HTML()), 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Preview of %s written to %s\n", job.Name, pc.outPath)
	return nil
}
