package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/newscrawl/internal/crawler"
	"github.com/nao1215/newscrawl/internal/model"
)

// ArticleStore persists extracted articles.
type ArticleStore interface {
	// InsertArticle stores title and its paragraphs as one article and
	// returns the article id.
	InsertArticle(ctx context.Context, title string, paragraphs []string) (int64, error)
}

// RateLimitStep waits on a limiter before the link is fetched.
type RateLimitStep struct {
	limiter crawler.Limiter
}

// NewRateLimitStep creates a RateLimitStep.
func NewRateLimitStep(limiter crawler.Limiter) *RateLimitStep {
	return &RateLimitStep{limiter: limiter}
}

// Name returns the step name.
func (s *RateLimitStep) Name() string {
	return "rate_limit"
}

// Do waits for the limiter. A limiter only fails when the context has
// ended or would end before the wait is over, so the error is canceled.
func (s *RateLimitStep) Do(ctx context.Context, job *LinkJob) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return model.NewCrawlError(model.KindCanceled, job.Link.Raw, err)
	}
	return nil
}

// RobotsStep skips links that robots.txt disallows.
type RobotsStep struct {
	checker *crawler.RobotsChecker
}

// NewRobotsStep creates a RobotsStep.
func NewRobotsStep(checker *crawler.RobotsChecker) *RobotsStep {
	return &RobotsStep{checker: checker}
}

// Name returns the step name.
func (s *RobotsStep) Name() string {
	return "robots"
}

// Do checks the link URL against the host's robots.txt.
func (s *RobotsStep) Do(ctx context.Context, job *LinkJob) error {
	err := s.checker.Check(ctx, job.Link.URL)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, crawler.ErrDisallowedByRobots):
		return model.NewCrawlError(model.KindRobots, job.Link.Raw, err)
	default:
		return classifyRequest(ctx, job.Link.Raw, err)
	}
}

// FetchStep downloads the article page.
type FetchStep struct {
	fetcher *crawler.Fetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher *crawler.Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches the link. Network errors and HTTP error statuses are
// transport errors.
func (s *FetchStep) Do(ctx context.Context, job *LinkJob) error {
	page, err := s.fetcher.Fetch(ctx, job.Link.URL, job.Header)
	if err != nil {
		return classifyRequest(ctx, job.Link.Raw, err)
	}
	job.Page = page
	return nil
}

// ExtractStep pulls the title and paragraphs out of the fetched page.
type ExtractStep struct {
	extractor *crawler.Extractor
}

// NewExtractStep creates an ExtractStep.
func NewExtractStep(extractor *crawler.Extractor) *ExtractStep {
	return &ExtractStep{extractor: extractor}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do extracts the article. Any failure is a parse error.
func (s *ExtractStep) Do(_ context.Context, job *LinkJob) error {
	if job.Page == nil {
		return model.NewCrawlError(model.KindParse, job.Link.Raw, errors.New("no page fetched"))
	}

	body, err := job.Page.Reader()
	if err != nil {
		return model.NewCrawlError(model.KindParse, job.Link.Raw, err)
	}

	article, err := s.extractor.Extract(body)
	if err != nil {
		return model.NewCrawlError(model.KindParse, job.Link.Raw, err)
	}

	job.Article = article
	job.Result.Title = article.Title
	return nil
}

// StoreStep writes the extracted article to the store.
type StoreStep struct {
	store  ArticleStore
	logger *slog.Logger
}

// StoreStepOption configures a StoreStep.
type StoreStepOption func(*StoreStep)

// WithStoreLogger sets the logger used to report stored articles.
func WithStoreLogger(logger *slog.Logger) StoreStepOption {
	return func(s *StoreStep) {
		s.logger = logger
	}
}

// NewStoreStep creates a StoreStep.
func NewStoreStep(store ArticleStore, opts ...StoreStepOption) *StoreStep {
	s := &StoreStep{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return "store"
}

// Do inserts the article and its sentences. Duplicate titles and every
// other database failure are storage errors.
func (s *StoreStep) Do(ctx context.Context, job *LinkJob) error {
	if job.Article == nil {
		return model.NewCrawlError(model.KindStorage, job.Link.Raw, errors.New("no article extracted"))
	}

	id, err := s.store.InsertArticle(ctx, job.Article.Title, job.Article.Paragraphs)
	if err != nil {
		if ctx.Err() != nil {
			return model.NewCrawlError(model.KindCanceled, job.Link.Raw, err)
		}
		return model.NewCrawlError(model.KindStorage, job.Link.Raw, err)
	}

	job.Result.ArticleID = id
	job.Result.Sentences = len(job.Article.Paragraphs)

	s.logger.Info("stored article",
		"title", job.Article.Title,
		"sentences", job.Result.Sentences,
		"article_id", id,
	)
	return nil
}

func classifyRequest(ctx context.Context, link string, err error) *model.CrawlError {
	if ctx.Err() != nil {
		return model.NewCrawlError(model.KindCanceled, link, err)
	}
	return model.NewCrawlError(model.KindTransport, link, err)
}
