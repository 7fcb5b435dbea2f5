package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/newscrawl/internal/config"
	"github.com/nao1215/newscrawl/internal/crawler"
	"github.com/nao1215/newscrawl/internal/model"
)

// Runner performs crawl runs: discover article links on a seed page,
// then push every link through the per-link pipeline.
type Runner struct {
	cfg      *config.Config
	fetcher  *crawler.Fetcher
	store    ArticleStore
	limiter  crawler.Limiter
	logger   *slog.Logger
	newRunID func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets the logger shared by the runner and its steps.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLimiter replaces the limiter derived from the configuration.
func WithLimiter(limiter crawler.Limiter) RunnerOption {
	return func(r *Runner) {
		r.limiter = limiter
	}
}

// WithRunIDFunc replaces the run ID generator.
func WithRunIDFunc(fn func() string) RunnerOption {
	return func(r *Runner) {
		r.newRunID = fn
	}
}

// NewRunner creates a Runner. Unless WithLimiter is given the limiter
// is built from cfg with NewLimiter.
func NewRunner(cfg *config.Config, fetcher *crawler.Fetcher, store ArticleStore, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		logger:   slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.limiter == nil {
		r.limiter = NewLimiter(cfg)
	}
	return r
}

// NewLimiter builds the limiter selected by cfg.Limiter.
func NewLimiter(cfg *config.Config) crawler.Limiter {
	if cfg.Limiter == config.LimiterInterval {
		return crawler.NewIntervalLimiter(cfg.MinDelay)
	}
	return crawler.NewJitterLimiter(cfg.MinDelay, cfg.MaxDelay)
}

// Crawl runs one crawl from seedURL.
//
// The report's Success is false only when the seed page could not be
// fetched or parsed; the returned error is non-nil in exactly that case
// and nothing is written. Per-link failures are recorded in the report
// and the crawl moves on to the next link. When ctx ends the remaining
// links are not attempted and the report is marked Canceled.
func (r *Runner) Crawl(ctx context.Context, seedURL string) (*model.CrawlReport, error) {
	report := model.NewCrawlReport(r.newRunID(), seedURL)
	logger := r.logger.With("run_id", report.RunID)
	defer func() { report.FinishedAt = time.Now() }()

	seed, err := url.Parse(seedURL)
	if err != nil || seed.Host == "" {
		return r.seedFailed(report, logger, model.KindParse, fmt.Errorf("invalid seed URL %q", seedURL))
	}

	site := r.cfg.Site(strings.ToLower(seed.Hostname()))
	pattern, err := regexp.Compile(site.ArticlePattern)
	if err != nil {
		return r.seedFailed(report, logger, model.KindParse, fmt.Errorf("invalid article pattern: %w", err))
	}
	header := crawler.SiteHeader(site.Cookie, site.Headers)

	logger.Info("starting crawl", "seed", seedURL)

	spider := crawler.NewSpider(r.fetcher, crawler.WithSpiderLogger(logger))
	links, err := spider.Discover(ctx, seedURL, pattern, header)
	if err != nil {
		return r.seedFailed(report, logger, seedErrorKind(ctx, err), err)
	}

	report.Success = true
	report.LinksFound = len(links)

	p := r.linkPipeline(site, logger)
	seen := crawler.NewLinkSet()

	for _, link := range links {
		if ctx.Err() != nil {
			report.Canceled = true
			break
		}
		if !seen.Add(link.Raw) {
			continue
		}

		job := NewLinkJob(link, header)
		if err := p.Execute(ctx, job); err != nil {
			ce := asCrawlError(ctx, link.Raw, err)
			job.Result.Error = ce
			logger.Warn("skipping link", "link", link.Raw, "kind", ce.Kind, "error", ce.Err)
			report.AddResult(job.Result)
			if ce.Kind == model.KindCanceled {
				report.Canceled = true
				break
			}
			continue
		}
		report.AddResult(job.Result)
	}

	logger.Info("crawl finished",
		"links", report.LinksFound,
		"stored", report.Succeeded(),
		"skipped", report.Skipped(),
		"canceled", report.Canceled,
	)
	return report, nil
}

func (r *Runner) linkPipeline(site config.SiteConfig, logger *slog.Logger) *Pipeline {
	p := New(WithLogger(logger))
	if r.cfg.RespectRobots {
		p.AddStep(NewRobotsStep(crawler.NewRobotsChecker(r.fetcher)))
	}
	p.AddSteps(
		NewRateLimitStep(r.limiter),
		NewFetchStep(r.fetcher),
		NewExtractStep(crawler.NewExtractor(site.TitleSelector, site.ArticleSelector, site.ParagraphSelector)),
		NewStoreStep(r.store, WithStoreLogger(logger)),
	)
	return p
}

func (r *Runner) seedFailed(report *model.CrawlReport, logger *slog.Logger, kind model.ErrorKind, err error) (*model.CrawlReport, error) {
	ce := model.NewCrawlError(kind, "", err)
	report.Success = false
	report.SeedError = ce.Error()
	logger.Error("seed page failed", "seed", report.SeedURL, "kind", kind, "error", err)
	return report, ce
}

func seedErrorKind(ctx context.Context, err error) model.ErrorKind {
	switch {
	case ctx.Err() != nil:
		return model.KindCanceled
	case errors.Is(err, crawler.ErrInvalidSeedPage):
		return model.KindParse
	default:
		return model.KindTransport
	}
}
