package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawl/internal/config"
	securelog "github.com/nao1215/newscrawl/internal/log"
	"github.com/nao1215/newscrawl/internal/report"
)

// NewRootCmd creates the root command for newscrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newscrawl",
		Short: "Crawl news articles into SQLite for entity extraction",
		Long: `newscrawl discovers article links on a news listing page, extracts each
article's title and body paragraphs, and stores them in a SQLite database.

The database has three tables: article, sentence (one row per paragraph)
and ner, which an external named-entity recognition step fills in.

Typical workflow:
  newscrawl initdb                # create empty tables
  newscrawl crawl                 # crawl https://globalnews.ca/
  newscrawl articles              # list stored articles
  newscrawl entities 1            # inspect entities of article 1`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs to stderr as JSON")
	cmd.PersistentFlags().String("db", config.DefaultDatabasePath(), "SQLite database path")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .newscrawl in current or home directory)")

	cmd.AddCommand(NewInitDBCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewArticlesCmd())
	cmd.AddCommand(NewEntitiesCmd())
	cmd.AddCommand(NewScheduleCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// baseConfig builds a Config from defaults and the persistent flags, and
// loads the site configuration file.
func baseConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.DBPath, err = cmd.Flags().GetString("db"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}

	if err := cfg.LoadSites(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger installs the redacting logger as the slog default.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	newLogger := securelog.NewSecureLogger
	if asJSON, err := cmd.Flags().GetBool("log-json"); err == nil && asJSON {
		newLogger = securelog.NewSecureJSONLogger
	}
	logger := newLogger(cmd.ErrOrStderr(), verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// reportFormat maps the report flags in cfg to a report.Format.
func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// addReportFlags registers the output format flags shared by commands
// that print reports.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path (creates directories if needed)")
}

// applyReportFlags copies the report flags into cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return err
	}
	if cfg.JSONReport && cfg.MarkdownReport {
		return config.ErrConflictingReportFormats
	}
	return nil
}

// openOutput returns the report destination: cfg.ReportFile when set,
// otherwise the command's stdout. The returned close function must be called.
func openOutput(cmd *cobra.Command, cfg *config.Config) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
