package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawl/internal/config"
	"github.com/nao1215/newscrawl/internal/schedule"
)

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule [seed-url]",
		Short: "Run the crawl repeatedly on a cron schedule",
		Long: `Schedule runs the same crawl as the crawl command on a cron schedule
until interrupted. A tick that fires while the previous crawl is still
running is skipped. Articles already stored are reported as duplicates
and left untouched, so only new articles are added on each run.

Each run writes its report to stdout, or overwrites --output.

Examples:
  # Crawl every hour, starting immediately
  newscrawl schedule --run-now

  # Crawl at minute 15 of every sixth hour
  newscrawl schedule --cron '15 */6 * * *'

  # Crawl every 30 minutes, keeping the latest JSON report
  newscrawl schedule --cron '@every 30m' -j -o reports/latest.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScheduleCmd,
	}

	cmd.Flags().String("cron", config.DefaultCronSpec,
		"Cron expression or descriptor (@hourly, @every 30m, 0 */6 * * *)")
	cmd.Flags().Bool("run-now", false, "Run one crawl immediately instead of waiting for the first tick")

	addCrawlFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// runScheduleCmd executes the schedule command.
func runScheduleCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.CronSpec, err = cmd.Flags().GetString("cron"); err != nil {
		return err
	}
	runNow, err := cmd.Flags().GetBool("run-now")
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	scheduler, err := schedule.New(cfg.CronSpec, crawlJob(cmd, cfg, logger),
		schedule.WithLogger(logger),
		schedule.WithRunOnStart(runNow),
	)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	fmt.Fprintf(cmd.ErrOrStderr(), "Scheduled crawl of %s (%s), next run at %s\n",
		cfg.SeedURL, cfg.CronSpec, scheduler.Next(time.Now()).Format(time.RFC3339))

	if err := scheduler.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Stopped after %d run(s), %d failed, %d skipped\n",
		scheduler.Runs(), scheduler.Failed(), scheduler.Skipped())
	return nil
}

// crawlJob returns the scheduled job: one full crawl with a fresh HTTP
// client and database handle, followed by its report.
func crawlJob(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) schedule.JobFunc {
	return func(ctx context.Context) error {
		runner, closeDB, err := newRunner(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = closeDB() }()

		crawlReport, crawlErr := runner.Crawl(ctx, cfg.SeedURL)
		if err := outputReport(cmd, cfg, crawlReport); err != nil {
			return err
		}
		return crawlErr
	}
}
