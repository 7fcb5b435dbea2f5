package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawl/internal/config"
	"github.com/nao1215/newscrawl/internal/database"
	"github.com/nao1215/newscrawl/internal/model"
	"github.com/nao1215/newscrawl/internal/report"
)

// NewArticlesCmd creates the articles command.
func NewArticlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List stored articles",
		Long: `Articles prints the id and title of every stored article in
insertion order.

Examples:
  newscrawl articles
  newscrawl articles --json`,
		Args: cobra.NoArgs,
		RunE: runArticlesCmd,
	}

	addReportFlags(cmd)

	return cmd
}

// runArticlesCmd executes the articles command.
func runArticlesCmd(cmd *cobra.Command, _ []string) error {
	cfg, db, err := openExisting(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := signalContext(cmd)
	defer cancel()

	var articles []model.Article
	for article, err := range db.ListArticles(ctx) {
		if err != nil {
			return fmt.Errorf("failed to list articles: %w", err)
		}
		articles = append(articles, article)
	}

	return writeOutput(cmd, cfg, false, func(w report.Writer) error {
		_, err := w.WriteArticles(articles)
		return err
	})
}

// openExisting builds the config for an inspection command and opens the
// database without creating it.
func openExisting(cmd *cobra.Command) (*config.Config, *database.CrawlDB, error) {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}
	setupLogger(cmd, cfg.Verbose)

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBPath, opts)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return nil, nil, fmt.Errorf("%w (run 'newscrawl initdb' first)", err)
		}
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, db, nil
}

// writeOutput opens the configured destination and hands a report writer
// to write. With tee set and a report file configured, a text rendering
// also goes to stdout.
func writeOutput(cmd *cobra.Command, cfg *config.Config, tee bool, write func(report.Writer) error) error {
	out, closeOut, err := openOutput(cmd, cfg)
	if err != nil {
		return err
	}

	var w report.Writer = report.New(out, reportFormat(cfg), cfg.Verbose)
	if tee && cfg.ReportFile != "" {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(cmd.OutOrStdout()))
	}

	if err := write(w); err != nil {
		_ = closeOut()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}
