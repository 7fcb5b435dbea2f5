package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nao1215/newscrawl/internal/crawler"
	"github.com/nao1215/newscrawl/internal/model"
)

// LinkJob carries one article link through the pipeline. Each step reads
// what earlier steps left on the job and adds its own output.
type LinkJob struct {
	// Link is the discovered article link.
	Link crawler.Link

	// Header holds the site cookie and extra headers for requests.
	Header http.Header

	// Page is set by FetchStep.
	Page *crawler.Page

	// Article is set by ExtractStep.
	Article *crawler.Extracted

	// Result accumulates the outcome reported for the link.
	Result model.LinkResult

	// Performed lists the names of the steps that completed.
	Performed []string
}

// NewLinkJob creates a job for link.
func NewLinkJob(link crawler.Link, header http.Header) *LinkJob {
	return &LinkJob{
		Link:      link,
		Header:    header,
		Result:    model.LinkResult{Link: link.Raw, URL: link.URL},
		Performed: make([]string, 0),
	}
}

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Do executes the step for one link. A returned error stops the
	// pipeline for this link; steps return *model.CrawlError so the
	// caller can tell why.
	Do(ctx context.Context, job *LinkJob) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs steps in order for each link.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps for job and stops at the first failure. The
// returned error is always a *model.CrawlError.
func (p *Pipeline) Execute(ctx context.Context, job *LinkJob) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Debug("pipeline cancelled", "step", step.Name(), "link", job.Link.Raw)
			return model.NewCrawlError(model.KindCanceled, job.Link.Raw, err)
		}

		p.logger.Debug("executing step", "step", step.Name(), "link", job.Link.Raw)

		if err := step.Do(ctx, job); err != nil {
			return asCrawlError(ctx, job.Link.Raw, err)
		}
		job.Performed = append(job.Performed, step.Name())
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// asCrawlError makes sure err is a *model.CrawlError. Unclassified errors
// become canceled when ctx has ended and transport errors otherwise.
func asCrawlError(ctx context.Context, link string, err error) *model.CrawlError {
	var ce *model.CrawlError
	if errors.As(err, &ce) {
		return ce
	}
	if ctx.Err() != nil {
		return model.NewCrawlError(model.KindCanceled, link, err)
	}
	return model.NewCrawlError(model.KindTransport, link, err)
}
