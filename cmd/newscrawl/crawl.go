package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawl/internal/config"
	"github.com/nao1215/newscrawl/internal/crawler"
	"github.com/nao1215/newscrawl/internal/database"
	"github.com/nao1215/newscrawl/internal/model"
	"github.com/nao1215/newscrawl/internal/pipeline"
	"github.com/nao1215/newscrawl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url]",
		Short: "Crawl a news listing page and store its articles",
		Long: `Crawl fetches the seed listing page, collects every link matching the
article pattern and stores each article's title and paragraphs.

Links are processed one at a time with a politeness pause before each
request. A link that fails (network error, missing title, duplicate
title) is skipped and reported; the run continues with the next link.

Examples:
  # Crawl the default seed (https://globalnews.ca/)
  newscrawl crawl

  # Crawl another listing page with its own article pattern
  newscrawl crawl https://example.com/news/ --pattern 'https://example\.com/news/\d+/'

  # Respect robots.txt and wait exactly 2s between requests
  newscrawl crawl --robots --limiter interval --min-delay 2s

  # Save a Markdown report
  newscrawl crawl -m -o reports/latest.md

Configuration file (.newscrawl) example:
  sites:
    globalnews.ca:
      titleSelector: "h1.l-article__title"
      cookie: "consent=yes"
      headers:
        Accept-Language: "en-CA"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)
	addReportFlags(cmd)

	return cmd
}

// addCrawlFlags registers the flags that control a crawl run. They are
// shared by crawl and schedule.
func addCrawlFlags(cmd *cobra.Command) {
	// Extraction flags
	cmd.Flags().String("pattern", config.DefaultArticlePattern,
		"Regular expression an href must match to be crawled as an article")
	cmd.Flags().String("title-selector", config.DefaultTitleSelector,
		"CSS selector for the article title")
	cmd.Flags().String("article-selector", config.DefaultArticleSelector,
		"CSS selector for the article body container")
	cmd.Flags().String("paragraph-selector", config.DefaultParagraphSelector,
		"CSS selector for paragraphs inside the container")

	// Politeness flags
	cmd.Flags().Bool("robots", false, "Skip links disallowed by robots.txt")
	cmd.Flags().String("limiter", config.LimiterJitter,
		"Politeness strategy: jitter (random pause) or interval (fixed spacing)")
	cmd.Flags().Duration("min-delay", config.DefaultMinDelay, "Minimum pause before each link")
	cmd.Flags().Duration("max-delay", config.DefaultMaxDelay, "Maximum pause before each link")

	// HTTP flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header for requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum bytes read per response")
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)

	ctx, cancel := signalContext(cmd)
	defer cancel()

	runner, closeDB, err := newRunner(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	crawlReport, crawlErr := runner.Crawl(ctx, cfg.SeedURL)
	if err := outputReport(cmd, cfg, crawlReport); err != nil {
		return err
	}
	if crawlErr != nil {
		return fmt.Errorf("crawl failed: %w", crawlErr)
	}
	if crawlReport.Canceled {
		logger.Warn("crawl canceled", "processed", len(crawlReport.Results), "links", crawlReport.LinksFound)
	}
	return nil
}

// buildConfig creates a Config from the persistent flags, the crawl flags,
// the report flags and the optional seed argument.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := baseConfig(cmd)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.SeedURL = args[0]
	}

	// Site flags are applied only when set; they then win over the config file.
	siteFlags := []struct {
		name      string
		value     *string
		overrides *string
	}{
		{"pattern", &cfg.ArticlePattern, &cfg.Overrides.ArticlePattern},
		{"title-selector", &cfg.TitleSelector, &cfg.Overrides.TitleSelector},
		{"article-selector", &cfg.ArticleSelector, &cfg.Overrides.ArticleSelector},
		{"paragraph-selector", &cfg.ParagraphSelector, &cfg.Overrides.ParagraphSelector},
	}
	for _, f := range siteFlags {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		if *f.value, err = cmd.Flags().GetString(f.name); err != nil {
			return nil, err
		}
		*f.overrides = *f.value
	}

	if cfg.RespectRobots, err = cmd.Flags().GetBool("robots"); err != nil {
		return nil, err
	}
	if cfg.Limiter, err = cmd.Flags().GetString("limiter"); err != nil {
		return nil, err
	}
	if cfg.MinDelay, err = cmd.Flags().GetDuration("min-delay"); err != nil {
		return nil, err
	}
	if cfg.MaxDelay, err = cmd.Flags().GetDuration("max-delay"); err != nil {
		return nil, err
	}

	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
		return nil, err
	}

	if err := applyReportFlags(cmd, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newRunner opens the database and wires the HTTP client, fetcher and
// storage into a crawl runner. The returned function closes the database.
func newRunner(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, func() error, error) {
	client, err := crawler.NewHTTPClient(cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}

	fetcher := crawler.NewFetcher(client,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithFetcherLogger(logger),
	)

	db, err := database.Open(cfg.DBPath, database.DefaultOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())

	runner := pipeline.NewRunner(cfg, fetcher, db, pipeline.WithRunnerLogger(logger))
	return runner, db.Close, nil
}

// outputReport writes the crawl report in the configured format. When the
// report goes to a file, the text summary is printed as well.
func outputReport(cmd *cobra.Command, cfg *config.Config, crawlReport *model.CrawlReport) error {
	if crawlReport == nil {
		return nil
	}

	err := writeOutput(cmd, cfg, true, func(w report.Writer) error {
		_, err := w.WriteCrawl(crawlReport)
		return err
	})
	if err != nil {
		return err
	}
	if cfg.ReportFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Report saved to: %s\n", cfg.ReportFile)
	}
	return nil
}
